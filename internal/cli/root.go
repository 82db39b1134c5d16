package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/internal/logger"
	"github.com/kushalyadavv/multi-address-backend/internal/service"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
)

var (
	version = "dev"
	commit  = "none"
)

// addressService is the part of the orchestrator the commands drive
type addressService interface {
	GetOrderSummary(ctx context.Context, orderID int64) (*domain.OrderSummary, error)
	GetAddresses(ctx context.Context, orderID int64) (*domain.AddressesView, error)
	SaveAsMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SaveResult, error)
	UpdateMetadata(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.UpdateResult, error)
	DeleteMetadata(ctx context.Context, orderID int64) (*domain.DeleteResult, error)
	SplitIntoOrders(ctx context.Context, orderID int64, assignments []domain.LineItemAssignment) (*domain.SplitResult, error)
}

// serviceFactory is called lazily so offline commands need no Shopify credentials
type serviceFactory func() (addressService, error)

func newRootCmd(build serviceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "multiaddress",
		Short:         "Operate multi-address shipping on Shopify orders",
		Long:          "multiaddress inspects, saves and splits per-line-item shipping addresses on Shopify orders using the same service as the HTTP API.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newOrderCmd(build))
	cmd.AddCommand(newAddressesCmd(build))
	cmd.AddCommand(newSaveCmd(build))
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newHashKeyCmd())
	return cmd
}

// NewRootCmdForTest returns the root command wired to the given Shopify settings.
func NewRootCmdForTest(cfg config.ShopifyConfig) *cobra.Command {
	return newRootCmd(func() (addressService, error) {
		return buildService(cfg, zap.NewNop())
	})
}

func Execute() error {
	cmd := newRootCmd(serviceFromEnv)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func serviceFromEnv() (addressService, error) {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return buildService(cfg.Shopify, log)
}

func buildService(cfg config.ShopifyConfig, log *zap.Logger) (addressService, error) {
	client, err := shopify.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return service.NewMultiAddressService(service.NewShopifyService(client, log), log), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kushalyadavv/multi-address-backend/internal/api/middleware"
	"github.com/kushalyadavv/multi-address-backend/internal/service"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate and normalize a shipping address offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading address: %w", err)
			}

			var req service.ValidateAddressRequest
			if err := yaml.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parsing %s: %w", file, err)
			}

			address, err := service.ValidateAddress(req.Target())
			if err != nil {
				var validation *errors.ErrValidation
				if stderrors.As(err, &validation) {
					_ = writeJSON(cmd.OutOrStdout(), map[string]interface{}{
						"valid":   false,
						"error":   validation.Message,
						"details": validation.Fields,
					})
				}
				return err
			}

			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"valid":   true,
				"address": address,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "address file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to use as API_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashAPIKey(args[0])
			if err != nil {
				return fmt.Errorf("hashing key: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

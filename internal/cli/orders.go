package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kushalyadavv/multi-address-backend/internal/domain"
	"github.com/kushalyadavv/multi-address-backend/internal/service"
)

func newOrderCmd(build serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "order <order-id>",
		Short: "Show the shippable line items of a multi-address order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := service.ParseOrderRef(args[0])
			if err != nil {
				return err
			}
			svc, err := build()
			if err != nil {
				return err
			}

			summary, err := svc.GetOrderSummary(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newAddressesCmd(build serviceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Read, replace or remove the saved shipping addresses of an order",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <order-id>",
		Short: "Print the saved shipping envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := service.ParseOrderRef(args[0])
			if err != nil {
				return err
			}
			svc, err := build()
			if err != nil {
				return err
			}

			view, err := svc.GetAddresses(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	})

	cmd.AddCommand(newAddressesUpdateCmd(build))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete the saved shipping envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := service.ParseOrderRef(args[0])
			if err != nil {
				return err
			}
			svc, err := build()
			if err != nil {
				return err
			}

			result, err := svc.DeleteMetadata(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	})

	return cmd
}

func newAddressesUpdateCmd(build serviceFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <order-id>",
		Short: "Replace the saved assignments, keeping configured_at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := service.ParseOrderRef(args[0])
			if err != nil {
				return err
			}
			assignments, err := readAssignments(file)
			if err != nil {
				return err
			}
			svc, err := build()
			if err != nil {
				return err
			}

			result, err := svc.UpdateMetadata(cmd.Context(), orderID, assignments)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "assignments file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSaveCmd(build serviceFactory) *cobra.Command {
	var (
		file   string
		method string
	)

	cmd := &cobra.Command{
		Use:   "save <order-id>",
		Short: "Save line item addresses as metafields or split the order",
		Long:  "Read line item assignments from a YAML or JSON file and either store them on the order or split it into one order per address.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := service.ParseOrderRef(args[0])
			if err != nil {
				return err
			}
			saveMethod := domain.SaveMethod(method)
			if !saveMethod.IsValid() {
				return fmt.Errorf("invalid --method %q: must be one of metafields, split_orders", method)
			}

			assignments, err := readAssignments(file)
			if err != nil {
				return err
			}

			svc, err := build()
			if err != nil {
				return err
			}

			if saveMethod == domain.SaveMethodSplitOrders {
				result, err := svc.SplitIntoOrders(cmd.Context(), orderID, assignments)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			}

			result, err := svc.SaveAsMetadata(cmd.Context(), orderID, assignments)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "assignments file (YAML or JSON)")
	cmd.Flags().StringVar(&method, "method", string(domain.SaveMethodMetafields), "metafields or split_orders")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readAssignments accepts either a bare list or a document with a line_items key
func readAssignments(path string) ([]domain.LineItemAssignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	if doc.Content[0].Kind == yaml.SequenceNode {
		var items []domain.LineItemAssignment
		if err := doc.Content[0].Decode(&items); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return items, nil
	}

	var req service.UpdateAddressesRequest
	if err := doc.Content[0].Decode(&req); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return req.LineItems, nil
}

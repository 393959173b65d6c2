package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/uniedit/paygate/internal/app"
	"github.com/uniedit/paygate/internal/model"
)

func paymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Manage payments",
	}
	cmd.AddCommand(paymentCreateCmd())
	return cmd
}

func paymentCreateCmd() *cobra.Command {
	var (
		orderID  int64
		amount   string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a pending payment for an order",
		Long: `Open a pending payment for an order.

Examples:
  paygate payment create --order 100 --amount 500.00 --provider click`,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// One-shot command: no message bus needed.
			cfg.Bus.Enabled = false

			application, cleanup, err := app.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			defer cleanup()

			p, err := application.Payments().Create(cmd.Context(), orderID, value, model.PaymentProvider(strings.ToUpper(provider)))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(model.NewPaymentResponse(p))
		},
	}

	cmd.Flags().Int64Var(&orderID, "order", 0, "order id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in major units, e.g. 500.00")
	cmd.Flags().StringVar(&provider, "provider", "", "provider: click or payme")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

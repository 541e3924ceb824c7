package main

import (
	"fmt"
	"log"

	"github.com/shinyyama/campus-market/internal/app"
	"github.com/shinyyama/campus-market/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newSettleCmd() *cobra.Command {
	var buyer, paymentID, email, amount string
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Replay settlement of a buyer's cart for a payment the webhook missed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := service.SettlementRequest{
				BuyerID:    buyer,
				BuyerEmail: email,
				PaymentID:  paymentID,
				Source:     "marketctl",
			}
			if amount != "" {
				amt, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("bad --amount: %w", err)
				}
				req.AmountGross = &amt
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Settlement.Settle(cmd.Context(), req)
				if err != nil {
					return err
				}
				for _, id := range res.ProcessedItemIDs {
					fmt.Fprintf(cmd.OutOrStdout(), "sold\t%s\n", id)
				}
				for _, s := range res.Skipped {
					fmt.Fprintf(cmd.OutOrStdout(), "skipped\t%s\t%s\n", s.ItemID, s.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&buyer, "buyer", "", "buyer uid")
	cmd.Flags().StringVar(&paymentID, "payment", "", "gateway payment id")
	cmd.Flags().StringVar(&email, "email", "", "buyer email recorded on purchases")
	cmd.Flags().StringVar(&amount, "amount", "", "gross amount the gateway reported")
	_ = cmd.MarkFlagRequired("buyer")
	_ = cmd.MarkFlagRequired("payment")
	return cmd
}

func newGrantAdminCmd() *cobra.Command {
	var uid string
	var revoke bool
	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Grant (or with --revoke, remove) admin rights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if revoke {
					return a.Admin.RevokeAdmin(cmd.Context(), operator, uid)
				}
				if err := a.Admin.GrantAdmin(cmd.Context(), operator, uid); err != nil {
					return err
				}
				log.Printf("granted admin to %s", uid)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "user id")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of grant")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/avstrong/studio/internal/app"
	"github.com/avstrong/studio/internal/payment"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Contributor payroll",
	}

	cmd.AddCommand(paymentsCalculateCmd())
	cmd.AddCommand(paymentsListCmd())

	return cmd
}

func paymentsCalculateCmd() *cobra.Command {
	var (
		year   int
		month  int
		owners []string
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Recalculate monthly summaries (default: previous month)",
		Example: `  studio payments calculate
  studio payments calculate --year 2024 --month 6 --owner anna --owner erik`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (year == 0) != (month == 0) {
				return errors.New("--year and --month must be given together")
			}

			return withApp(func(a *app.App) error {
				period := a.Payments.PreviousPeriod()
				if year != 0 {
					var err error
					if period, err = payment.NewPeriod(year, time.Month(month)); err != nil {
						return err
					}
				}

				if len(owners) == 0 {
					owners = a.Conf.Payroll.Contributors
				}

				result, err := a.Payments.Recalculate(cmd.Context(), period, owners)
				if err != nil {
					return err
				}

				return printJSON(result)
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "period year")
	cmd.Flags().IntVar(&month, "month", 0, "period month (1-12)")
	cmd.Flags().StringSliceVar(&owners, "owner", nil, "owner ids (default: payroll.contributors, else everyone with bookings)")

	return cmd
}

func paymentsListCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored summaries of one contributor, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				summaries, err := a.Payments.ListForOwner(cmd.Context(), owner)
				if err != nil {
					return err
				}

				if len(summaries) == 0 {
					fmt.Fprintf(os.Stderr, "No summaries for %s\n", owner)

					return nil
				}

				return printJSON(summaries)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"weighttracker/internal/domain"
)

func newWeightCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weight",
		Short: "Record and inspect weight measurements",
	}
	cmd.AddCommand(
		newWeightAddCmd(c),
		newWeightListCmd(c),
		newWeightDeleteCmd(c),
		newWeightUndoCmd(c),
	)
	return cmd
}

func newWeightAddCmd(c *cli) *cobra.Command {
	var (
		at   string
		unit string
	)
	cmd := &cobra.Command{
		Use:   "add <weight>",
		Short: "Record a weight measurement",
		Example: `  weighttracker weight add 71.4
  weighttracker weight add 157.5 --unit lb --at 2026-03-01T07:30:00+01:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid weight %q", args[0])
			}
			if !domain.ValidUnit(unit) {
				return domain.ErrInvalidUnit
			}
			var recordedAt time.Time
			if at != "" {
				if recordedAt, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at %q: expected RFC3339", at)
				}
			}

			return c.withServices(func(svc *services) error {
				rec, err := svc.weight.Append(cmd.Context(), domain.ConvertWeight(value, unit, domain.UnitKg), recordedAt)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %d: %.1f %s at %s\n",
					rec.ID, value, unit, rec.RecordedAt.Local().Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "measurement time, RFC3339 (default now)")
	cmd.Flags().StringVar(&unit, "unit", domain.UnitKg, "unit of <weight>: kg or lb")
	return cmd
}

func newWeightListCmd(c *cli) *cobra.Command {
	var (
		unit   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the weight history newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidUnit(unit) {
				return domain.ErrInvalidUnit
			}
			if err := validOutput(output); err != nil {
				return err
			}
			return c.withServices(func(svc *services) error {
				points, err := svc.weight.History(cmd.Context())
				if err != nil {
					return err
				}
				return writeWeightRows(cmd.OutOrStdout(), output, weightRows(points, unit))
			})
		},
	}
	cmd.Flags().StringVar(&unit, "unit", domain.UnitKg, "display unit: kg or lb")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newWeightDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a weight measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return c.withServices(func(svc *services) error {
				if err := svc.weight.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
				return nil
			})
		},
	}
}

func newWeightUndoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Delete the most recent weight measurement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServices(func(svc *services) error {
				rec, err := svc.weight.UndoLast(cmd.Context())
				if err != nil {
					return err
				}
				if rec == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to undo")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d: %.1f kg\n", rec.ID, rec.Value)
				return nil
			})
		},
	}
}

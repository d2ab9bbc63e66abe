package main

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/vegasq/parsearch/datemath"
)

func newDateMathCmd() *cobra.Command {
	var now, zone string
	cmd := &cobra.Command{
		Use:   "datemath <expression>",
		Short: "Resolve a relative date expression such as 'day() -1d'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := time.UTC
			if zone != "" {
				var err error
				if loc, err = time.LoadLocation(zone); err != nil {
					return fmt.Errorf("invalid zone: %w", err)
				}
			}
			ref := time.Now()
			if now != "" {
				var err error
				if ref, err = dateparse.ParseIn(now, loc); err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
			}

			t, err := datemath.ParseInZone(args[0], loc, ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339Nano))
			return nil
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "reference time instead of the current time")
	cmd.Flags().StringVar(&zone, "zone", "", "IANA time zone anchors truncate in")
	return cmd
}

package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/movesmart/service-route/internal/domain/route"
)

var classifyCmd = newClassifyCmd()

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Label a distance/duration pair with the configured thresholds",
		Example: "  movesmart classify --distance 10 --duration 31\n" +
			"  movesmart classify --duration 20",
		RunE: runClassify,
	}
	cmd.Flags().Float64("distance", math.NaN(), "route distance in kilometres")
	cmd.Flags().Float64("duration", math.NaN(), "travel time in minutes")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	if err := cfg.Congestion.Validate(); err != nil {
		return err
	}
	policy := route.NewRatioPolicy(cfg.Congestion)

	distance := optionalFlag(cmd, "distance")
	duration := optionalFlag(cmd, "duration")
	level := policy.Classify(distance, duration)

	if distance != nil && duration != nil {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (ratio %.2f)\n", level, policy.Ratio(*distance, *duration))
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), level)
	return err
}

// optionalFlag returns nil when the flag was not given.
func optionalFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/LdDl/natmap"
	"github.com/LdDl/natmap/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var stateCmd = &cobra.Command{
	Use:   "state <ST>",
	Short: "Extract one state delivery and report record counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := prepareState(cmd.Context(), cfg, openSource(cfg), args[0])
		if err != nil {
			return err
		}
		printExtractStats(cmd.OutOrStdout(), data)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <ST>",
	Short: "Classify streets of one state and report road class distribution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := prepareState(cmd.Context(), cfg, openSource(cfg), args[0])
		if err != nil {
			return err
		}
		printRoadClasses(cmd.OutOrStdout(), data.Streets)
		return nil
	},
}

// prepareState runs per-state stages which need no workspace
func prepareState(ctx context.Context, c *config.Config, src natmap.Source, state string) (*natmap.StateData, error) {
	st := time.Now()
	data, err := natmap.ExtractState(ctx, src, state)
	if err != nil {
		return nil, err
	}
	if c.Outputs.ProjectWebMercator {
		natmap.ProjectState(data)
	}
	cities := natmap.AssignCities(data.Streets, data.Towns)
	stats := natmap.ClassifyStreets(data.Streets)
	data.Nodes = natmap.FilterNodes(data.Nodes, data.Streets, c.Geometry.XYTolerance)
	zap.L().Info("State prepared",
		zap.String("state", data.State),
		zap.Int("streets", len(data.Streets)),
		zap.Int("with_city", cities),
		zap.Int("classified", stats.Classified),
		zap.Int("skipped", stats.Skipped),
		zap.Int("nodes", len(data.Nodes)),
		zap.Duration("elapsed", time.Since(st)),
	)
	return data, nil
}

func printExtractStats(w io.Writer, data *natmap.StateData) {
	stats := data.Stats
	fmt.Fprintf(w, "state;%s\n", data.State)
	fmt.Fprintf(w, "streets;%d\n", stats.Streets)
	fmt.Fprintf(w, "ferries;%d\n", stats.Ferries)
	fmt.Fprintf(w, "nodes;%d\n", stats.Nodes)
	fmt.Fprintf(w, "nodes_on_streets;%d\n", len(data.Nodes))
	fmt.Fprintf(w, "low_valence_nodes;%d\n", stats.LowValenceNodes)
	fmt.Fprintf(w, "restriction_legs;%d\n", stats.RestrictionLegs)
	fmt.Fprintf(w, "filtered_restrictions;%d\n", stats.FilteredRestrictions)
	fmt.Fprintf(w, "signposts;%d\n", stats.SignpostIDs)
	fmt.Fprintf(w, "signpost_rows;%d\n", stats.SignpostRows)
	fmt.Fprintf(w, "towns;%d\n", len(data.Towns))
	fmt.Fprintf(w, "railroads;%d\n", len(data.Railroads))
}

func printRoadClasses(w io.Writer, streets []*natmap.StreetSegment) {
	counts := make(map[string]int)
	for _, street := range streets {
		counts[street.RoadClass.String()]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s;%d\n", name, counts[name])
	}
}

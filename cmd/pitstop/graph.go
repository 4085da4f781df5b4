package main

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop/internal/cli"
	"github.com/aretw0/pitstop/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the workflow. With --run the workflow
is executed first and the visited nodes are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		withRun, _ := cmd.Flags().GetBool("run")

		ctx := context.Background()
		stack, err := cli.BuildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		eng, err := cli.NewEngine(stack, cfg, logger, nil)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if withRun {
			st, _ := eng.Run(ctx)
			overlay = graph.OverlayFromState(st)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	addDataFlags(graphCmd)
	graphCmd.Flags().Bool("run", false, "Run the workflow and highlight the path it took")
}

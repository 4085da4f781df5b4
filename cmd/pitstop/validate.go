package main

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the workflow graph and the policy for consistency",
	Long: `Builds the workflow graph and reports unmapped router outcomes, dangling
edges, unreachable nodes and cycles. The policy file, if any, is validated too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		stack, err := cli.BuildStack(context.Background(), cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		eng, err := cli.NewEngine(stack, cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		g := eng.Graph()
		fmt.Fprintf(cmd.OutOrStdout(), "Graph is valid! ✅ (%d nodes, %d edges, entry '%s')\n", g.Len(), len(g.Edges()), g.Entry())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("policy", "", "Path to a tool access policy YAML file")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBestMoveCmd() *cobra.Command {
	var position string
	var depth int

	cmd := &cobra.Command{
		Use:   "bestmove",
		Short: "Ask the engine for the best move in a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			if position == "" {
				return fmt.Errorf("--position is required")
			}

			req := map[string]any{
				"position": position,
				"depth":    depth,
			}
			var result BestMoveResult

			if err := client.Post("/bestmove", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&position, "position", "", "Position in FEN (required)")
	cmd.Flags().IntVar(&depth, "depth", 10, "Search depth")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}

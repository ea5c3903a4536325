package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Query the health endpoint and print open rooms and live connections.

With --wait the command keeps polling until the server answers or the
duration runs out, which is handy right after starting the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			deadline := time.Now().Add(wait)
			for {
				err := client.Get("/api/v1/health", &result)
				if err == nil {
					break
				}
				if time.Now().After(deadline) {
					return err
				}
				time.Sleep(healthPollInterval)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)

			if result.Status != "ok" {
				return fmt.Errorf("server reports status %q", result.Status)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for up to this long")

	return cmd
}

package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const probeInterval = 500 * time.Millisecond

func newProbeCmd(v *viper.Viper) *cobra.Command {
	var (
		target  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Wait until a running server reports healthy",
		Long: `Poll the /api/health endpoint until it answers 200 or the timeout
expires. Exits non-zero when the server never became healthy, which makes it
usable as a container health check.

Examples:
  museme probe
  museme probe --url http://localhost:8080 --timeout 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				port := v.GetString("port")
				if port == "" {
					port = "3000"
				}
				target = "http://localhost:" + port
			}
			if err := waitForHealthy(cmd.Context(), target, timeout); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "url", "", "base URL of the server (default http://localhost:<port>)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to keep polling")

	return cmd
}

// waitForHealthy polls the health endpoint until it responds or times out.
func waitForHealthy(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	healthURL := strings.TrimRight(baseURL, "/") + "/api/health"

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return fmt.Errorf("probe: %w", err)
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("probe: %s not healthy after %v", baseURL, timeout)
		case <-ticker.C:
		}
	}
}

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	checkWorkerURL string
	checkPath      string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single health probe against a worker endpoint",
	Long: `Issues one GET request the same way the supervisor's health prober
does: following redirects, with a short timeout, passing only on a 200
response. Useful for validating probePath before wiring it into config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkWorkerURL, "worker-url", "http://127.0.0.1:9090", "base URL of the worker process")
	checkCmd.Flags().StringVar(&checkPath, "path", "/healthz", "health check path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(checkWorkerURL + checkPath)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %s%s returned 200\n", checkWorkerURL, checkPath)
	return nil
}

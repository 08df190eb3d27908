package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const minTruncateLen = 4

// truncatePattern collapses a pattern to a single line and caps it at
// maxLen runes, so a long path pattern doesn't blow out the table width.
func truncatePattern(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

var statusGatewayURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running gateway's per-endpoint metrics",
	Long:  `Fetches GET /_metrics from a running gateway and renders it as a table.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusGatewayURL, "gateway-url", "http://127.0.0.1:8080", "base URL of the running gateway")
}

// metricsRow mirrors the JSON shape gateway.Metrics.snapshot produces.
type metricsRow struct {
	Pattern          string    `json:"pattern"`
	Total            int64     `json:"total"`
	Successful       int64     `json:"successful"`
	Failed           int64     `json:"failed"`
	CurrentQueueSize int       `json:"currentQueueSize"`
	LastRequestTime  time.Time `json:"lastRequestTime,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(statusGatewayURL + "/_metrics")
	if err != nil {
		return fmt.Errorf("fetching metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var rows []metricsRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return fmt.Errorf("decoding metrics: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("PATTERN"),
		text.FgHiCyan.Sprint("REQUESTS"),
		text.FgHiCyan.Sprint("ERRORS"),
		text.FgHiCyan.Sprint("QUEUE"),
		text.FgHiCyan.Sprint("LAST REQUEST"),
	})
	for _, row := range rows {
		lastSeen := "-"
		if !row.LastRequestTime.IsZero() {
			lastSeen = row.LastRequestTime.Format(time.RFC3339)
		}
		pattern := truncatePattern(row.Pattern, 40)
		t.AppendRow(table.Row{pattern, row.Total, row.Failed, row.CurrentQueueSize, lastSeen})
	}
	t.Render()
	return nil
}

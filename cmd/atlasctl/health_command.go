package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/recipeatlas/server/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

type healthOptions struct {
	url        string
	timeout    time.Duration
	verbose    bool
	format     string
	expect     string
	retries    int
	retryDelay time.Duration
}

// healthReport mirrors the JSON served by the health endpoint
type healthReport struct {
	Status          healthcheck.Status `json:"status"`
	Version         string             `json:"version"`
	Timestamp       time.Time          `json:"timestamp"`
	TotalDurationMS float64            `json:"total_duration_ms"`
	Checks          []struct {
		Name       string             `json:"name"`
		Status     healthcheck.Status `json:"status"`
		Message    string             `json:"message,omitempty"`
		DurationMS float64            `json:"duration_ms"`
	} `json:"checks"`
}

func newHealthCommand() *cobra.Command {
	opts := healthOptions{}

	cmd := &cobra.Command{
		Use:         "health",
		Short:       "Probe the health endpoint of a running server",
		Long:        "Probe a health endpoint. Exits 0 when the status meets --expect, 1 when it does not, 2 when the endpoint could not be read.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.url == "" {
				opts.url = defaultHealthURL()
			}
			if code := runHealthCheck(cmd.OutOrStdout(), opts); code != exitCodeSuccess {
				return exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Health endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8080/health)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print individual checks")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json, compact")
	cmd.Flags().StringVar(&opts.expect, "expect", string(healthcheck.StatusHealthy), "Lowest acceptable status: healthy, degraded")
	cmd.Flags().IntVar(&opts.retries, "retry", 0, "Number of retries when the request fails")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", time.Second, "Delay between retries")

	return cmd
}

func defaultHealthURL() string {
	if url := os.Getenv("HEALTH_CHECK_URL"); url != "" {
		return url
	}
	return "http://localhost:8080/health"
}

func runHealthCheck(out io.Writer, opts healthOptions) int {
	client := &http.Client{Timeout: opts.timeout}

	var lastErr error
	for attempt := 0; attempt <= opts.retries; attempt++ {
		if attempt > 0 {
			if opts.verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", opts.retryDelay, attempt, opts.retries)
			}
			time.Sleep(opts.retryDelay)
		}

		resp, err := client.Get(opts.url)
		if err != nil {
			lastErr = err
			if opts.verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}
		return handleHealthResponse(out, resp, opts)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", opts.retries+1, lastErr)
	return exitCodeError
}

// handleHealthResponse decodes the body; 503 responses still carry a report
func handleHealthResponse(out io.Writer, resp *http.Response, opts healthOptions) int {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(out, "Failed to read response: %v\n", err)
		return exitCodeError
	}
	var report healthReport
	if err := json.Unmarshal(raw, &report); err != nil || report.Status == "" {
		fmt.Fprintf(out, "Unexpected response from %s (HTTP %d)\n", opts.url, resp.StatusCode)
		return exitCodeError
	}

	switch opts.format {
	case "json":
		var pretty interface{}
		_ = json.Unmarshal(raw, &pretty)
		data, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		fmt.Fprintln(out, string(raw))
	default:
		printHealthText(out, report, opts.verbose)
	}

	return exitCodeFor(report.Status, healthcheck.Status(opts.expect))
}

func exitCodeFor(status, expected healthcheck.Status) int {
	if status == expected {
		return exitCodeSuccess
	}
	switch status {
	case healthcheck.StatusUnhealthy:
		return exitCodeFailure
	case healthcheck.StatusDegraded:
		if expected == healthcheck.StatusHealthy {
			return exitCodeFailure
		}
	}
	return exitCodeSuccess
}

func printHealthText(out io.Writer, r healthReport, verbose bool) {
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	if r.Version != "" {
		fmt.Fprintf(out, "Version: %s\n", r.Version)
	}
	if !r.Timestamp.IsZero() {
		fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Duration: %.0fms\n", r.TotalDurationMS)

	if !verbose || len(r.Checks) == 0 {
		return
	}
	fmt.Fprintln(out, "\nChecks:")
	for _, check := range r.Checks {
		fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
		if check.Message != "" {
			fmt.Fprintf(out, " (%s)", check.Message)
		}
		fmt.Fprintf(out, " [%.0fms]\n", check.DurationMS)
	}
}

// Command vconctl pushes vCons to the dashboard server and queries it.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/al-ameen36/vcon-bubble-maps/analytics"
)

var (
	serverURL string
	timeout   time.Duration
	cursor    string
	limit     int
)

var rootCmd = &cobra.Command{
	Use:           "vconctl",
	Short:         "Operate a vCon dashboard server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var pushCmd = &cobra.Command{
	Use:   "push <file.json>...",
	Short: "Ingest vCon documents",
	Long: `Post each vCon in the given files to the ingestion endpoint.
A file may hold one vCon object or a JSON array of them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPush,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of stored vCons",
	RunE:  runList,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the dashboard assistant about the current view",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("VCON_SERVER", "http://localhost:8080"), "dashboard server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	listCmd.Flags().StringVar(&cursor, "cursor", "", "page cursor from a previous list")
	listCmd.Flags().IntVar(&limit, "limit", 0, "page size")

	rootCmd.AddCommand(pushCmd, listCmd, askCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runPush(cmd *cobra.Command, args []string) error {
	client := newAPIClient(serverURL, timeout)
	ctx := cmd.Context()
	failed := 0
	pushed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs, err := splitDocuments(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for i, doc := range docs {
			if err := client.push(ctx, doc); err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s[%d]: %v\n", path, i, err)
				continue
			}
			pushed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pushed %d vcons\n", pushed)
	if failed > 0 {
		return fmt.Errorf("%d vcons failed", failed)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	client := newAPIClient(serverURL, timeout)
	page, err := client.list(cmd.Context(), cursor, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i := range page.Records {
		r := &page.Records[i]
		category, ok := r.Category()
		if !ok {
			category = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", r.UUID, r.CreatedAt, category, r.SentimentType(), analytics.Label(r))
	}
	if page.NextCursor != "" {
		fmt.Fprintf(out, "next cursor: %s\n", page.NextCursor)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	client := newAPIClient(serverURL, timeout)
	answer, err := client.ask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

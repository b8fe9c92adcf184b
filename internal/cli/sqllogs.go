package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/flow"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
	"github.com/matzehuels/flowgraph/pkg/retry"
	"github.com/matzehuels/flowgraph/pkg/source/sqllog"
)

// sqlLogsOpts holds the Elasticsearch flags of the sql-logs command. Unset
// flags fall back to the [elasticsearch] config section.
type sqlLogsOpts struct {
	url         string
	indexPrefix string
	query       string
	limit       int
}

// sqlLogsCommand creates the sql-logs command, which graphs which code
// paths read from and write to which database tables.
func (c *CLI) sqlLogsCommand() *cobra.Command {
	var opts sqlLogsOpts
	var flags outputFlags

	cmd := &cobra.Command{
		Use:   "sql-logs",
		Short: "Graph database access from SQL query logs in Elasticsearch",
		Long: `Fetch the last 24 hours of SQL query logs from Elasticsearch and graph
which code paths read from and write to which tables.

Edges point from a table to the code that reads it and from the code to the
table it writes. Edge values are each flow's share of its busiest source.`,
		Example: `  flowgraph sql-logs --url http://es:9200 -f svg -o sql.svg
  FLOWGRAPH_ES_INDEX_PREFIX=logs_ flowgraph sql-logs --sort`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			es := cfg.Elasticsearch
			if cmd.Flags().Changed("url") {
				es.URL = opts.url
			}
			if cmd.Flags().Changed("index-prefix") {
				es.IndexPrefix = opts.indexPrefix
			}
			if cmd.Flags().Changed("query") {
				es.Query = opts.query
			}
			if cmd.Flags().Changed("limit") {
				es.Limit = opts.limit
			}

			pipeOpts, err := flags.options(cmd, cfg.Render)
			if err != nil {
				return err
			}
			pipeOpts.Logger = c.Logger

			client, err := sqllog.NewClient(sqllog.ClientConfig{
				URL:      es.URL,
				Username: es.Username,
				Password: es.Password,
				Timeout:  es.Timeout,
				Retry: retry.Policy{
					Attempts: es.Retries + 1,
					Delay:    retry.Default.Delay,
					MaxDelay: retry.Default.MaxDelay,
				},
			}, c.Logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			prog := newProgress(c.Logger)
			spin := newSpinner(ctx, "Searching "+es.URL+"...")
			spin.Start()
			messages, err := client.Search(ctx, sqllog.SearchOptions{
				IndexPrefix: es.IndexPrefix,
				Query:       es.Query,
				Limit:       es.Limit,
			})
			if err != nil {
				spin.StopWithError("Search failed")
				return err
			}
			spin.StopWithSuccess(fmt.Sprintf("Fetched %d messages", len(messages)))
			prog.done("search finished", "messages", len(messages))

			drafts, skipped := sqllog.Drafts(messages)
			if skipped > 0 {
				printWarning("Skipped %d messages without a code location", skipped)
			}

			result, err := pipeline.Run(ctx, c.newRunner(), drafts, flow.Counter{Unit: "queries"}, pipeOpts)
			if err != nil {
				return err
			}
			if err := c.writeArtifacts(result.Artifacts, pipeOpts.Formats, flags.output, "sql-logs"); err != nil {
				return err
			}
			printStats(result.Stats.EntryCount, result.Stats.EdgeCount, result.Stats.NodeCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Elasticsearch URL (default from config)")
	cmd.Flags().StringVar(&opts.indexPrefix, "index-prefix", "", "prefix of the daily log indices (default from config)")
	cmd.Flags().StringVar(&opts.query, "query", "", "query_string selecting SQL messages (default from config)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of messages to fetch (default from config)")
	flags.register(cmd, false)

	return cmd
}

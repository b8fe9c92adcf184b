package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/flow"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
	"github.com/matzehuels/flowgraph/pkg/source/pcap"
)

// pcapOpts holds the flags of the pcap command.
type pcapOpts struct {
	proto      string
	scribeHost string
	noCache    bool
}

// pcapCommand creates the pcap command, which graphs traffic between hosts
// recorded in a packet capture.
func (c *CLI) pcapCommand() *cobra.Command {
	var opts pcapOpts
	var flags outputFlags

	cmd := &cobra.Command{
		Use:   "pcap <capture> [" + strings.Join(pcap.Protocols, "|") + "]",
		Short: "Graph traffic between hosts from a pcap or pcapng capture",
		Long: `Read a packet capture and graph which hosts talk to each other.

Protocols:
  raw     every packet with a payload is a flow between its endpoints
  redis   LPOP and RPUSH commands are flows through a queue
  scribe  log messages are flows through the scribe host to a category

Host names come from reverse DNS and are cached between runs. Numbered
hosts of a pool share one node, e.g. ap-s200 and ap-s201 become ap-s*.`,
		Example: `  flowgraph pcap capture.pcap
  flowgraph pcap capture.pcapng redis -f svg -o queues.svg
  flowgraph pcap capture.pcap --proto scribe --scribe-host mq-s3`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeCaptureArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			proto := opts.proto
			if len(args) == 2 {
				proto = args[1]
			}
			scribeHost := cfg.Pcap.ScribeHost
			if cmd.Flags().Changed("scribe-host") {
				scribeHost = opts.scribeHost
			}

			pipeOpts, err := flags.options(cmd, cfg.Render)
			if err != nil {
				return err
			}
			pipeOpts.Logger = c.Logger

			ctx := cmd.Context()
			hostCache, err := c.newHostCache(ctx, cfg.Cache, opts.noCache)
			if err != nil {
				return err
			}
			defer hostCache.Close()

			resolverOpts := []pcap.ResolverOption{
				pcap.WithCollapsePrefixes(cfg.Pcap.CollapsePrefixes),
				pcap.WithTTL(cfg.Cache.TTL),
			}
			if c.lookup != nil {
				resolverOpts = append(resolverOpts, pcap.WithLookup(c.lookup))
			}
			resolver := pcap.NewResolver(hostCache, c.Logger, resolverOpts...)
			parser, err := pcap.NewParser(proto, resolver, scribeHost)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			packets, stats, err := pcap.ReadFile(ctx, args[0])
			if err != nil {
				return err
			}
			prog.done("read capture", "packets", stats.Read, "kept", stats.Kept)

			spin := newSpinner(ctx, "Resolving hosts...")
			spin.Start()
			drafts := pcap.Drafts(ctx, packets, parser)
			spin.Stop()
			if err := ctx.Err(); err != nil {
				return err
			}
			if c.hooks != nil {
				hits, misses := c.hooks.cacheCounts()
				c.Logger.Debug("hostname cache", "hits", hits, "misses", misses)
			}

			pipeOpts.Header = pcap.Header(stats, proto)
			result, err := pipeline.Run(ctx, c.newRunner(), drafts, flow.Counter{Unit: "packets"}, pipeOpts)
			if err != nil {
				return err
			}
			if err := c.writeArtifacts(result.Artifacts, pipeOpts.Formats, flags.output, fallbackBase(args[0], "capture")); err != nil {
				return err
			}
			printStats(result.Stats.EntryCount, result.Stats.EdgeCount, result.Stats.NodeCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.proto, "proto", pcap.ProtoRaw, "protocol: "+strings.Join(pcap.Protocols, ", "))
	_ = cmd.RegisterFlagCompletionFunc("proto", completeProtocols)
	cmd.Flags().StringVar(&opts.scribeHost, "scribe-host", "", "host receiving scribe traffic (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "resolve every host name again")
	flags.register(cmd, true)

	return cmd
}

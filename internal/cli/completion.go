package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/pipeline"
	"github.com/matzehuels/flowgraph/pkg/source/pcap"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for flowgraph to stdout.

Besides command and flag names, the script completes output formats for
--format (dot,svg works too), protocol names after a capture file, and
offers only .pcap, .pcapng and .cap files as captures.

Try it in the current shell:
  source <(flowgraph completion bash)
  flowgraph completion fish | source

Install it for new shells by writing it where your shell looks:
  flowgraph completion bash > ~/.local/share/bash-completion/completions/flowgraph
  flowgraph completion zsh > "${fpath[1]}/_flowgraph"
  flowgraph completion fish > ~/.config/fish/completions/flowgraph.fish
  flowgraph completion powershell >> $PROFILE`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// captureExts are the file extensions offered for a capture argument.
var captureExts = []string{"pcap", "pcapng", "cap"}

// completeCaptureArgs completes the capture file, then the protocol.
func completeCaptureArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return captureExts, cobra.ShellCompDirectiveFilterFileExt
	case 1:
		return completeProtocols(cmd, args, toComplete)
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func completeProtocols(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, p := range pcap.Protocols {
		if strings.HasPrefix(p, toComplete) {
			out = append(out, p)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes the last entry of a comma-separated format list,
// skipping formats already listed.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	head := toComplete[:strings.LastIndex(toComplete, ",")+1]
	chosen := strings.Split(head, ",")

	var out []string
	for _, name := range pipeline.FormatNames {
		if slices.Contains(chosen, name) {
			continue
		}
		if candidate := head + name; strings.HasPrefix(candidate, toComplete) {
			out = append(out, candidate)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

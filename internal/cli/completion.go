package cli

import (
	"github.com/spf13/cobra"
)

// fileFlagExts lists the file extensions offered when completing a flag
// that takes an input file.
var fileFlagExts = map[string][]string{
	"gfa":     {"gfa", "gz", "zst"},
	"bed":     {"bed", "gz", "zst"},
	"samples": {"txt", "list"},
	"weights": {"json", "gz", "zst"},
	"config":  {"toml"},
}

// completionCommand emits shell completion scripts for simpg.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for simpg.

The script completes the pipeline stages (build, walks, core, population,
simulate, subsample, run) and their flags. Input flags only offer matching
files: --gfa proposes .gfa/.gz/.zst, --bed proposes .bed/.gz/.zst,
--weights proposes .json and --config proposes .toml.

Load the script into the current shell, or install it once per user:

  bash        source <(simpg completion bash)
              simpg completion bash > ~/.local/share/bash-completion/completions/simpg
  zsh         simpg completion zsh > "${fpath[1]}/_simpg"
  fish        simpg completion fish > ~/.config/fish/completions/simpg.fish
  powershell  simpg completion powershell | Out-String | Invoke-Expression`,
		Example: `  # complete stages in the running shell
  source <(simpg completion bash)
  simpg sim<TAB>            # simulate
  simpg build --gfa <TAB>   # only rGFA files`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// registerFileCompletions restricts file completion of the input flags in
// the tree under root to the extensions in fileFlagExts.
func registerFileCompletions(root *cobra.Command) {
	for name, exts := range fileFlagExts {
		if root.LocalFlags().Lookup(name) == nil {
			continue
		}
		_ = root.RegisterFlagCompletionFunc(name, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return exts, cobra.ShellCompDirectiveFilterFileExt
		})
	}
	for _, sub := range root.Commands() {
		registerFileCompletions(sub)
	}
}

// Package completion provides shell completion support.
package completion

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/sfbulk/internal/cmd/root"
)

// Register registers the completion command
func Register(parent *cobra.Command, opts *root.Options) {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for sfbulk.

To load completions:

Bash:
  $ source <(sfbulk completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ sfbulk completion bash > /etc/bash_completion.d/sfbulk
  # macOS:
  $ sfbulk completion bash > $(brew --prefix)/etc/bash_completion.d/sfbulk

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ sfbulk completion zsh > "${fpath[1]}/_sfbulk"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ sfbulk completion fish | source
  # To load completions for each session, execute once:
  $ sfbulk completion fish > ~/.config/fish/completions/sfbulk.fish

PowerShell:
  PS> sfbulk completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> sfbulk completion powershell > sfbulk.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer = cmd.OutOrStdout()
			if opts.Stdout != nil {
				out = opts.Stdout
			}
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
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

	parent.AddCommand(cmd)
}

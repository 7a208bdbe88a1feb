package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agbru/picalc/internal/config"
)

// FlagCompletion describes the value completion of one flag. Shell scripts
// are generated by cobra from the command tree; this registry only adds the
// values cobra cannot infer.
type FlagCompletion struct {
	Long       string   // long flag name without "--"
	Values     []string // suggested values (nil with IsFile)
	IsFile     bool     // true if the flag takes a file path
	Extensions []string // file extensions offered for IsFile flags
}

// flagRegistry lists the flags that get value completion.
var flagRegistry = []FlagCompletion{
	{Long: "mode", Values: config.Modes()},
	{Long: "transport", Values: []string{config.TransportSSH, config.TransportNATS}},
	{Long: "timeout", Values: []string{"1m", "5m", "10m", "30m", "1h"}},
	{Long: "log-level", Values: []string{"debug", "info", "warn", "error", "disabled"}},
	{Long: "iterations", Values: []string{"1000000", "10000000", "100000000"}},
	{Long: "hosts-file", IsFile: true, Extensions: []string{"yaml", "yml"}},
	{Long: "output", IsFile: true},
}

// RegisterCompletions attaches the registry to cmd. Flags that cmd does not
// define are skipped.
func RegisterCompletions(cmd *cobra.Command) error {
	for _, f := range flagRegistry {
		if cmd.Flags().Lookup(f.Long) == nil {
			continue
		}
		var err error
		if f.IsFile {
			err = cmd.MarkFlagFilename(f.Long, f.Extensions...)
		} else {
			err = cmd.RegisterFlagCompletionFunc(f.Long, cobra.FixedCompletions(f.Values, cobra.ShellCompDirectiveNoFileComp))
		}
		if err != nil {
			return fmt.Errorf("registering completion for --%s: %w", f.Long, err)
		}
	}
	return nil
}

// GenerateCompletion writes the completion script of root for shell.
func GenerateCompletion(root *cobra.Command, out io.Writer, shell string) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(out, true)
	case "zsh":
		return root.GenZshCompletion(out)
	case "fish":
		return root.GenFishCompletion(out, true)
	case "powershell", "ps":
		return root.GenPowerShellCompletionWithDesc(out)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

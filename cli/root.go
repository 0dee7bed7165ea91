// Package cli provides the command-line interface of axitb.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the axitb command tree. Flag defaults read the
// environment when the tree is built, so load any .env file first.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "axitb",
		Short: "AXI4/ACE width-converting interconnect testbench.",
		Long: `axitb drives random AXI4 traffic from several masters through a ` +
			`width-converting interconnect into reference slaves and checks ` +
			`every request, data beat and response against a scoreboard.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCommand(), newConfigCommand())

	return rootCmd
}

// Usage lists every runnable command of the tree, one "path: summary" pair
// per entry, in the order cobra lists them.
func Usage(root *cobra.Command) [][2]string {
	var out [][2]string

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, sub := range c.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}

			if sub.Runnable() {
				out = append(out, [2]string{sub.CommandPath(), sub.Short})
			}

			walk(sub)
		}
	}
	walk(root)

	return out
}

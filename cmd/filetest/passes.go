package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"filetest/internal/pass"
	"filetest/internal/runone"
)

var passesCmd = &cobra.Command{
	Use:   "passes [command]",
	Short: "List timed passes, or the passes a test command runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			printCatalogue(out)
			return nil
		}
		passes, ok := runone.Passes(args[0])
		if !ok {
			return fmt.Errorf("unknown test command %q (known: %s)", args[0], strings.Join(runone.Commands(), ", "))
		}
		for _, p := range passes {
			fmt.Fprintf(out, "%s %s\n", color.CyanString("%-24s", p.Name()), p)
		}
		return nil
	},
}

func printCatalogue(out io.Writer) {
	for _, p := range pass.All() {
		fmt.Fprintf(out, "%2d  %-24s %s\n", p.Index(), p.Name(), p)
	}
	fmt.Fprintf(out, "\ntest commands: %s\n", strings.Join(runone.Commands(), ", "))
}

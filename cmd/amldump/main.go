// Command amldump loads one or more raw ACPI table files (DSDT plus any
// SSDTs) into an aml.VM and lets a developer poke at the resulting
// namespace from the command line: list it, invoke a method by path, or
// watch method calls/exceptions stream by as the tables load.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "amldump",
		Short: "Inspect and exercise an ACPI AML namespace",
	}
	root.AddCommand(newDumpCmd(), newCallCmd(), newTraceCmd())
	return root
}

package main

import (
	"fmt"
	"sort"

	"acpivm/device/acpi/sysfs"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the loaded namespace as an indented tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := buildVM(&f, newLogger(f.logJSON))
			if err != nil {
				return err
			}
			exposer := sysfs.NewDirExposer()
			exposer.Expose(vm.Namespace())
			printNode(exposer.Root(), 0)
			return nil
		},
	}
	addCommonFlags(cmd.Flags(), &f)
	return cmd
}

func printNode(n *sysfs.DirNode, depth int) {
	if n.Object != nil && n.Object.Name().String() != "" {
		fmt.Printf("%s%s (%s)\n", indent(depth), n.Object.Name().String(), n.Object.Kind.String())
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printNode(n.Children[name], depth+1)
	}
}

func indent(depth int) string {
	b := make([]byte, depth*2)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

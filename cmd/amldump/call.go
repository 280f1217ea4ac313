package main

import (
	"fmt"
	"strconv"

	"acpivm/device/acpi/aml"

	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "call <path> [args...]",
		Short: "Invoke a Method by namespace path and print its result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := buildVM(&f, newLogger(f.logJSON))
			if err != nil {
				return err
			}

			path := args[0]
			callArgs := make([]*aml.Object, 0, len(args)-1)
			for _, raw := range args[1:] {
				v, perr := strconv.ParseUint(raw, 0, 64)
				if perr != nil {
					return fmt.Errorf("amldump: argument %q is not an integer: %w", raw, perr)
				}
				callArgs = append(callArgs, vm.NewInteger(v))
			}

			res, aerr := vm.Invoke(path, callArgs...)
			if aerr != nil {
				return fmt.Errorf("amldump: %s", aerr.Error())
			}
			fmt.Println(aml.Describe(res))
			return nil
		},
	}
	addCommonFlags(cmd.Flags(), &f)
	return cmd
}

package main

import (
	"fmt"

	"acpivm/device/acpi/aml"

	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Load the tables while printing every Method call, return, and exception",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(f.logJSON)

			// buildVM runs Init internally, so the trace hook has to be
			// installed on the VM before that happens; split the steps
			// buildVM otherwise does in one call.
			resolver, err := resolverFromFlags(&f)
			if err != nil {
				return err
			}
			vm := aml.NewVM(resolver)
			vm.SetTraceHook(func(ev aml.TraceEvent) {
				entry := log.WithFields(map[string]interface{}{
					"method": ev.Method,
				})
				switch ev.Kind {
				case "exception":
					entry.WithField("detail", ev.Detail).Warn("method raised an exception")
				default:
					entry.Info(ev.Kind)
				}
			})

			if err := vm.Init(); err != nil {
				return fmt.Errorf("amldump: %s", err.Error())
			}
			if f.strict && vm.UnresolvedCount() > 0 {
				return fmt.Errorf("amldump: %d unresolved forward reference(s) after loading", vm.UnresolvedCount())
			}
			return nil
		},
	}
	addCommonFlags(cmd.Flags(), &f)
	return cmd
}

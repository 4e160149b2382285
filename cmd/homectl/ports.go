package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-homing/transport"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List the serial ports found on this system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := transport.ListPorts()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "no serial ports found")
				return nil
			}

			for _, port := range ports {
				fmt.Fprintln(out, port)
			}

			return nil
		},
	}
}

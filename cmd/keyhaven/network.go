package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyhaven/keyhaven/internal/netstate"
)

// networkCmd is the parent command for the network flag.
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Process-wide network flag",
	Long: `Show or flip the process-wide network flag.

The vault itself never uses the network. The flag only changes what this
invocation is allowed to do; the persistent default lives in the config.`,
}

func init() {
	rootCmd.AddCommand(networkCmd)
	networkCmd.AddCommand(networkOnCmd)
	networkCmd.AddCommand(networkOffCmd)
	networkCmd.AddCommand(networkStatusCmd)
}

var networkOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable network access for this invocation",
	RunE: func(cmd *cobra.Command, args []string) error {
		netstate.SetEnabled(true)
		fmt.Println("Network: enabled")
		return nil
	},
}

var networkOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable network access for this invocation",
	RunE: func(cmd *cobra.Command, args []string) error {
		netstate.SetEnabled(false)
		fmt.Println("Network: disabled")
		return nil
	},
}

var networkStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the network flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		if netstate.Enabled() {
			fmt.Println("Network: enabled")
		} else {
			fmt.Println("Network: disabled")
		}
		return nil
	},
}

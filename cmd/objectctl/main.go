package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "objectctl",
	Short: "Administer a multi-disk placement layer",
	Long: `objectctl is a local administration tool for the placement layer.
It plugs and unplugs disks and reports per-disk placement status, operating
on an embedded layer rather than talking to a running daemon over the wire.`,
}

var stateFile string

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&stateFile, "state", "./objectctl-state.json", "path to the disk registry state file")
	rootCmd.AddCommand(diskCmd)
}

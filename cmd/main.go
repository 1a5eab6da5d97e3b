package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "fairdraw",
	Short:        "Weighted commit-reveal draw engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, commitCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

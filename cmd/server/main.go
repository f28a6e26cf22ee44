package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "robux-topup-backend"

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "server",
		Short:   "Robux top-up backend with Tripay payment reconciliation",
		Version: Version,
		RunE:    runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

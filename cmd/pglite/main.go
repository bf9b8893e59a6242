package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "pglite",
		Short: "Run an ephemeral PGlite postgres server for local testing",
	}
	root.AddCommand(newUpCmd(), newDSNCmd())
	return root
}

/*
Command querytool inspects mentor search query strings offline.

Usage:

	querytool parse [query...]
	querytool normalize [--fields a,b] < events.ndjson
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AdvisorySG/mentorship-analytics/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "querytool",
		Short:         "Parse and normalize mentor search query strings",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.NewParseCmd())
	rootCmd.AddCommand(cli.NewNormalizeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

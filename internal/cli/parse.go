// Package cli holds the querytool subcommands.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdvisorySG/mentorship-analytics/pkg/querystring"
)

// NewParseCmd creates the 'parse' command, which prints the search state of
// each query string as one JSON object per line.
func NewParseCmd() *cobra.Command {
	var canonical bool
	var tokens bool

	cmd := &cobra.Command{
		Use:   "parse [query...]",
		Short: "Reconstruct search state from query strings",
		Long: `Parse query strings emitted by the mentor search UI.
Queries are taken from the arguments, or from stdin one per line when no
arguments are given.`,
		Example: `  querytool parse 'q=law&filters[0][field]=industries&filters[0][values][0]=Banking'
  cat queries.txt | querytool parse --canonical`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachInput(cmd.InOrStdin(), args, func(raw string) error {
				return printParsed(cmd.OutOrStdout(), raw, canonical, tokens)
			})
		},
	}

	cmd.Flags().BoolVarP(&canonical, "canonical", "c", false, "Print the re-encoded query string instead of JSON")
	cmd.Flags().BoolVarP(&tokens, "tokens", "t", false, "Print the raw key/value tokens instead of the search state")

	return cmd
}

func printParsed(out io.Writer, raw string, canonical, tokens bool) error {
	if tokens {
		for _, tok := range querystring.Tokenize(raw) {
			if _, err := fmt.Fprintf(out, "%s\t%s\n", tok.Key, tok.Value); err != nil {
				return err
			}
		}
		return nil
	}

	parsed := querystring.Parse(raw)
	if canonical {
		_, err := fmt.Fprintln(out, querystring.Encode(parsed))
		return err
	}
	return json.NewEncoder(out).Encode(parsed)
}

// eachInput calls fn for every argument, or for every non-blank stdin line
// when there are no arguments.
func eachInput(in io.Reader, args []string, fn func(string) error) error {
	if len(args) > 0 {
		for _, arg := range args {
			if err := fn(arg); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

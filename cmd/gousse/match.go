package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gousse/pkg/router"
)

func matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match PATTERN URL",
		Short: "Match a URL against a route pattern",
		Long: `Match a URL against a route pattern and print the captures.

Patterns are paths with {name} placeholders and an optional trailing
/* (matched, not captured) or /{*} (captured), or regular expressions
starting with ^.

Examples:
  gousse match '/users/{id}' /users/42
  gousse match '/docs/{*}' /docs/a/b
  gousse match '^/(\d+)$' /7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := router.Compile(args[0])
			if err != nil {
				return err
			}
			url := args[1]
			if i := strings.IndexByte(url, '?'); i >= 0 {
				url = url[:i]
			}
			res, ok := p.Match(url)
			if !ok {
				return fmt.Errorf("%s does not match %s", args[1], args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pattern   %s\n", p)
			fmt.Fprintf(out, "url       %s\n", router.NormalizePath(url))
			fmt.Fprintf(out, "groups    [%s]\n", strings.Join(res.Groups, " "))
			fmt.Fprintf(out, "wildcard  %t\n", res.Wildcard)
			names := make([]string, 0, len(res.Named))
			for k := range res.Named {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				fmt.Fprintf(out, "  %s = %s\n", k, res.Named[k])
			}
			return nil
		},
	}
}

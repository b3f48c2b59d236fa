package main

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/linequery/internal/query"
	"github.com/spf13/cobra"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	dataDir      string
	file         string
	maxLineBytes int
	filter       string
	mapIndex     string
	regex        string
	sort         string
	limit        string
	unique       bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a query and print the resulting lines as JSON",
		Example: `  linequery run --file access.log --filter GET --map 6 --unique
  linequery run --data-dir /var/log --file app.log --regex 'ERROR|WARN' --sort desc --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dataDir, "data-dir", envOr("DATA_DIR", "data"), "directory file names are resolved against")
	flags.StringVarP(&opts.file, "file", "f", "", "file to query, relative to --data-dir")
	flags.IntVar(&opts.maxLineBytes, "max-line-bytes", query.DefaultMaxLineBytes, "longest accepted line")
	flags.StringVar(&opts.filter, "filter", "", "keep lines containing this substring")
	flags.StringVar(&opts.mapIndex, "map", "", "replace each line with its space-separated column at this index")
	flags.StringVar(&opts.regex, "regex", "", "keep lines matching this regular expression")
	flags.StringVar(&opts.sort, "sort", "asc", "sort lines: asc or desc")
	flags.StringVar(&opts.limit, "limit", "", "keep the first N lines (negative N drops the last |N|)")
	flags.BoolVar(&opts.unique, "unique", false, "drop duplicate lines (ignored with --limit)")

	return cmd
}

// commandsFromFlags builds Commands from the flags the user set. Unset flags
// leave their operator off.
func commandsFromFlags(cmd *cobra.Command, opts *runOptions) query.Commands {
	var pairs []query.Pair
	add := func(flag, op, value string) {
		if cmd.Flags().Changed(flag) {
			pairs = append(pairs, query.Pair{Name: op, Value: value})
		}
	}

	add("filter", query.OpFilter, opts.filter)
	add("map", query.OpMap, opts.mapIndex)
	add("regex", query.OpRegex, opts.regex)
	add("sort", query.OpSort, opts.sort)
	add("limit", query.OpLimit, opts.limit)
	if opts.unique {
		pairs = append(pairs, query.Pair{Name: query.OpUnique})
	}

	return query.ParseCommands(pairs)
}

func runQuery(cmd *cobra.Command, opts *runOptions) error {
	svc := query.NewService(query.NewSource(opts.dataDir, opts.maxLineBytes))

	result, err := svc.Query(cmd.Context(), query.Request{
		FileName: opts.file,
		Commands: commandsFromFlags(cmd, opts),
	})
	if err != nil {
		msg := query.MapError(err)
		return fmt.Errorf("%s (%s): %w", msg.Message, msg.Code, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result.Lines)
}

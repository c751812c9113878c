package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dbetl/internal/config"
	"dbetl/internal/datasource"
	"dbetl/internal/infer"
	"dbetl/internal/migrate"
	"dbetl/internal/rows"
	"dbetl/internal/schema"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <provider> <database> <file>",
		Short: "Load a CSV or XLSX file into a new table",
		Long: `Creates a table named after the file (or --table) and bulk-loads the file
into it. Column types come from --schema, from <file>.schema when present, or
are inferred from a sample of the file. file may be an http(s) URL, or "."
for stdin together with --schema.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, database, file := args[0], args[1], args[2]

			table := a.v.GetString("table")
			if table == "" {
				table = datasource.BaseName(file)
			}
			text := a.textOptions()
			cols, err := a.importSchema(cmd, file, text)
			if err != nil {
				return err
			}
			text.Schema = cols

			cur, size, err := a.openInput(cmd, file, text)
			if err != nil {
				return err
			}
			defer cur.Close()

			job := a.v.GetString("job")
			p, err := a.provider(kind, database, a.v.GetInt("batch-size"), job)
			if err != nil {
				return err
			}
			opts := migrate.ImportOptions{
				Schema:  a.v.GetString("target-schema"),
				Mapping: config.Mapping{Style: a.v.GetString("style")}.BuildMapping(p),
				Job:     job,
				Logger:  a.logger,
			}
			if a.v.GetBool("create") || a.v.GetBool("replace") {
				if strings.Contains(database, "=") || strings.Contains(database, "://") {
					return errors.New("--create and --replace need a bare database name")
				}
				opts.Database, opts.Replace = database, a.v.GetBool("replace")
			}

			var tracker rows.Tracker
			tracked := rows.Track(cur, progressEvery, tracker.Update)
			done := make(chan struct{})
			var out migrate.Outcome

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				defer close(done)
				var err error
				out, err = migrate.Import(ctx, p, tracked, table, opts)
				return err
			})
			if a.v.GetBool("progress") {
				g.Go(func() error {
					renderProgress(cmd.ErrOrStderr(), &tracker, size, done)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s rows in %s\n",
				out.Target, humanize.Comma(tracked.Rows()), out.Elapsed.Truncate(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("table", "t", "", "target table name (default: file name without extension)")
	f.IntP("skip", "s", 0, "lines to skip before the header")
	f.String("schema", "", "schema file describing the columns (default: <file>.schema, else inferred)")
	f.Int("lines", infer.DefaultSampleRows, "rows sampled when the schema is inferred")
	f.Bool("no-header", false, "the first record is data")
	f.String("delimiter", ",", "CSV field delimiter")
	f.String("sheet", "", "XLSX worksheet (default: first)")
	f.String("target-schema", "", "database schema for the new table")
	f.String("style", "none", "target naming: none or dialect")
	f.Bool("create", false, "create the database first")
	f.Bool("replace", false, "drop and recreate the database first")
	f.Int("batch-size", 0, "rows per bulk batch")
	f.String("job", "dbetl", "job name for logs and metrics")
	f.Bool("progress", true, "draw a progress bar on stderr")
	return cmd
}

// importSchema resolves the column types of file: an explicit --schema, a
// sibling <file>.schema, or inference over a sample.
func (a *app) importSchema(cmd *cobra.Command, file string, text rows.TextOptions) ([]schema.ColumnInfo, error) {
	if path := a.v.GetString("schema"); path != "" {
		return schema.ReadFile(path)
	}
	if file == "." {
		return nil, errors.New("stdin can be read only once; pass --schema")
	}
	if !datasource.IsRemote(file) {
		sibling := file + ".schema"
		if _, err := os.Stat(sibling); err == nil {
			a.logger.Printf("import: schema=%s", sibling)
			return schema.ReadFile(sibling)
		}
	}

	cur, _, err := a.openInput(cmd, file, text)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	cols, err := infer.Analyze(cur, infer.Options{SampleRows: a.v.GetInt("lines")})
	if err != nil {
		return nil, fmt.Errorf("infer %s: %w", file, err)
	}
	a.logger.Printf("import: inferred columns=%d from %s", len(cols), file)
	return cols, nil
}

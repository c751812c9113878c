package main

import (
	"fmt"
	"time"

	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <provider> <database> <table> <file>",
		Short: "Write a table to a CSV file plus a schema file",
		Long: `Reads every row of table (optionally "schema.table") into file and writes
the column types to <file>.schema so the file can be imported again. "." as
file writes the CSV to stdout and skips the schema file.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, database, table, file := args[0], args[1], args[2], args[3]
			ctx := cmd.Context()

			p, err := a.provider(kind, database, 0, a.v.GetString("job"))
			if err != nil {
				return err
			}
			conn, err := p.Open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			cols, err := conn.GetSchema(ctx, table)
			if err != nil {
				return err
			}
			schemaName, name := storage.SplitQualified(table)
			start := time.Now()
			cur, err := conn.Query(ctx, schema.TableInfo{Schema: schemaName, Name: name, Columns: cols}, cols)
			if err != nil {
				return err
			}
			defer cur.Close()

			if file != "." {
				if err := schema.WriteFile(file+".schema", cols); err != nil {
					return err
				}
			}
			w, closeOut, err := createOutput(cmd, file)
			if err != nil {
				return err
			}
			n, err := rows.WriteCSV(w, cur)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", table, err)
			}
			a.logger.Printf("export: table=%s rows=%s elapsed=%s", table, humanize.Comma(n), time.Since(start).Truncate(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().String("job", "dbetl", "job name for logs and metrics")
	return cmd
}

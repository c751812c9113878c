package main

import (
	"fmt"
	"strconv"
	"strings"

	"dbetl/internal/rows"
	"dbetl/internal/schema"

	"github.com/spf13/cobra"
)

func (a *app) selectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <file> <output> <columns...>",
		Short: "Copy chosen columns of a CSV or XLSX file into a new CSV file",
		Long: `Columns are zero-based indexes or header names and may repeat. "." as
file or output means stdin or stdout.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, output, specs := args[0], args[1], args[2:]

			cur, _, err := a.openInput(cmd, in, a.textOptions())
			if err != nil {
				return err
			}
			defer cur.Close()

			idx, err := columnIndexes(cur.Columns(), specs)
			if err != nil {
				return err
			}
			p, err := rows.Project(cur, idx)
			if err != nil {
				return err
			}

			w, closeOut, err := createOutput(cmd, output)
			if err != nil {
				return err
			}
			n, err := rows.WriteCSV(w, p)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			a.logger.Printf("select: rows=%d columns=%d", n, len(idx))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntP("skip", "s", 0, "lines to skip before the header")
	f.Bool("no-header", false, "the first record is data")
	f.String("delimiter", ",", "CSV field delimiter")
	f.String("sheet", "", "XLSX worksheet (default: first)")
	return cmd
}

// columnIndexes resolves index or name specs against cols. Names match
// case-insensitively.
func columnIndexes(cols []schema.ColumnInfo, specs []string) ([]int, error) {
	idx := make([]int, 0, len(specs))
	for _, s := range specs {
		if n, err := strconv.Atoi(s); err == nil {
			idx = append(idx, n)
			continue
		}
		found := -1
		for i, c := range cols {
			if strings.EqualFold(c.Name, s) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("unknown column %q", s)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

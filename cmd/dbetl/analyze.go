package main

import (
	"fmt"

	"dbetl/internal/datasource"
	"dbetl/internal/infer"
	"dbetl/internal/schema"

	"github.com/spf13/cobra"
)

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file> [schema-output]",
		Short: "Infer column types from a sample of a CSV or XLSX file",
		Long: `Writes a schema file that import picks up automatically. The output
defaults to <file>.schema; "." writes to stdout. file may be "." for stdin or
an http(s) URL.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, output := args[0], args[0]+".schema"
			if file == "." || datasource.IsRemote(file) {
				output = datasource.BaseName(file) + ".schema"
			}
			if len(args) == 2 {
				output = args[1]
			}

			cur, _, err := a.openInput(cmd, file, a.textOptions())
			if err != nil {
				return err
			}
			defer cur.Close()

			cols, err := infer.Analyze(cur, infer.Options{SampleRows: a.v.GetInt("lines")})
			if err != nil {
				return fmt.Errorf("analyze %s: %w", file, err)
			}
			if output == "." {
				_, err := fmt.Fprint(cmd.OutOrStdout(), schema.Serialize(cols))
				return err
			}
			if err := schema.WriteFile(output, cols); err != nil {
				return err
			}
			a.logger.Printf("analyze: file=%s columns=%d schema=%s", file, len(cols), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntP("lines", "n", infer.DefaultSampleRows, "rows to sample")
	f.IntP("skip", "s", 0, "lines to skip before the header")
	f.Bool("no-header", false, "the first record is data")
	f.String("delimiter", ",", "CSV field delimiter")
	f.String("sheet", "", "XLSX worksheet (default: first)")
	return cmd
}

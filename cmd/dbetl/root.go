package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"dbetl/internal/config"
	"dbetl/internal/datasource"
	"dbetl/internal/datasource/httpds"
	"dbetl/internal/rows"
	"dbetl/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries state shared by all subcommands.
type app struct {
	v *viper.Viper
	// logger receives per-table lines; storage receives batch-level lines
	// and is silent unless --verbose is set.
	logger  *log.Logger
	storage *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "dbetl",
		Short:         "Copy schemas and data between databases and files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := config.LoadDotEnv(a.v.GetString("env-file")); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			a.logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			a.storage = log.New(io.Discard, "", 0)
			if a.v.GetBool("verbose") {
				a.storage = a.logger
			}
			return nil
		},
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file with credentials; missing files are ignored")
	root.PersistentFlags().BoolP("verbose", "v", false, "log batch-level progress from the storage layer")
	root.PersistentFlags().Int("http-retries", 3, "retries for http(s) inputs on 429, 5xx and network errors")
	root.PersistentFlags().Duration("http-timeout", 0, "overall limit per http(s) download; 0 means none")
	root.PersistentFlags().Bool("insecure", false, "skip TLS certificate checks for http(s) inputs")
	root.PersistentFlags().StringSlice("header", nil, `extra "Key: Value" header for http(s) inputs; repeatable`)

	root.AddCommand(
		a.migrateCmd(),
		a.importCmd(),
		a.analyzeCmd(),
		a.selectCmd(),
		a.exportCmd(),
	)
	return root
}

// provider builds a provider for kind and a DSN or bare database name,
// filling credentials from the environment.
func (a *app) provider(kind, dsn string, batchSize int, job string) (storage.Provider, error) {
	e := config.ApplyCredentials(a.v, config.Endpoint{Kind: kind, DSN: dsn})
	return storage.New(storage.Config{
		Kind:      e.Kind,
		DSN:       e.DSN,
		User:      e.User,
		Password:  e.Password,
		BatchSize: batchSize,
		Job:       job,
		Logger:    a.storage,
	})
}

func isExcel(location string) bool {
	switch datasource.Ext(location) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// openInput opens a CSV or XLSX input from a local path, "." (stdin) or an
// http(s) URL. size is the byte length when known, else -1.
func (a *app) openInput(cmd *cobra.Command, location string, text rows.TextOptions) (*rows.Text, int64, error) {
	excel := rows.ExcelOptions{TextOptions: text, Sheet: a.v.GetString("sheet")}
	if isExcel(location) && location != "." && !datasource.IsRemote(location) {
		t, err := rows.OpenExcel(location, excel)
		return t, -1, err
	}

	rc, err := datasource.Resolve(location, a.httpClient(cmd), cmd.InOrStdin()).Open(cmd.Context())
	if err != nil {
		return nil, -1, err
	}
	if isExcel(location) {
		defer rc.Close()
		t, err := rows.NewExcel(rc, excel)
		if err != nil {
			return nil, -1, fmt.Errorf("%s: %w", location, err)
		}
		return t, -1, nil
	}
	size := datasource.Size(rc)
	t, err := rows.NewCSV(rc, rows.CSVOptions{TextOptions: text, Comma: a.delimiter()})
	if err != nil {
		_ = rc.Close()
		return nil, -1, fmt.Errorf("%s: %w", location, err)
	}
	return t, size, nil
}

func (a *app) httpClient(cmd *cobra.Command) *httpds.Client {
	hdr := http.Header{}
	for _, h := range stringSlice(a.v, cmd.Flags(), "header") {
		if k, v, ok := strings.Cut(h, ":"); ok {
			hdr.Add(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}
	return httpds.NewClient(httpds.Config{
		Timeout:            a.v.GetDuration("http-timeout"),
		MaxRetries:         a.v.GetInt("http-retries"),
		InsecureSkipVerify: a.v.GetBool("insecure"),
		BaseHeaders:        hdr,
	})
}

func (a *app) textOptions() rows.TextOptions {
	return rows.TextOptions{
		Skip:     a.v.GetInt("skip"),
		NoHeader: a.v.GetBool("no-header"),
	}
}

func (a *app) delimiter() rune {
	d := []rune(a.v.GetString("delimiter"))
	if len(d) == 0 {
		return ','
	}
	if string(d) == `\t` {
		return '\t'
	}
	return d[0]
}

// stringSlice reads a list flag. Values from the environment arrive as one
// comma-separated string.
func stringSlice(v *viper.Viper, fs *pflag.FlagSet, name string) []string {
	if f := fs.Lookup(name); f != nil && f.Changed {
		out, _ := fs.GetStringSlice(name)
		return out
	}
	var out []string
	for _, s := range v.GetStringSlice(name) {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// createOutput opens path for writing, or stdout for ".". The returned
// function flushes and closes the file.
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "." {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	return bw, func() error {
		if err := bw.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}, nil
}

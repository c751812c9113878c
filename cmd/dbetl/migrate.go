package main

import (
	"errors"
	"fmt"
	"strings"

	"dbetl/internal/config"
	"dbetl/internal/datasource/file"
	"dbetl/internal/metrics"
	"dbetl/internal/metrics/datadog"
	"dbetl/internal/metrics/prompush"
	"dbetl/internal/migrate"
	"dbetl/internal/storage"

	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every table from a source database into a target database",
		Long: `Reads the table catalog of the source, maps names and exclusions, creates
each table on the target and bulk-loads its rows. Settings come from a TOML
run file (--config); flags override individual values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.runConfig(cmd)
			if err != nil {
				return err
			}

			issues := config.Validate(r)
			for _, iss := range issues {
				fmt.Fprintln(cmd.ErrOrStderr(), iss.Error())
			}
			if config.HasErrors(issues) {
				return errors.New("configuration is invalid")
			}
			if a.v.GetBool("validate") {
				fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
				return nil
			}

			flush, err := a.setupMetrics(r)
			if err != nil {
				return err
			}
			defer flush()

			src, err := a.endpointProvider(r, r.Source)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			dst, err := a.endpointProvider(r, r.Target)
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}

			a.logger.Printf("migrate: job=%s source=%s target=%s style=%s", r.Job, src.Kind(), dst.Kind(), r.Mapping.Style)
			m := migrate.Migrator{
				Source:  src,
				Target:  dst,
				Mapping: r.Mapping.BuildMapping(dst),
				Logger:  a.logger,
				Job:     r.Job,
			}
			rep, runErr := m.Run(cmd.Context())
			if rep != nil {
				if err := rep.Write(cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringP("config", "c", "", "TOML run file")
	f.Bool("validate", false, "validate the configuration and exit")
	f.String("job", "", "job name for logs and metrics")
	f.String("source-kind", "", "source provider (postgres, mssql, sqlite)")
	f.String("source", "", "source connection string or database name")
	f.String("target-kind", "", "target provider (postgres, mssql, sqlite)")
	f.String("target", "", "target connection string or database name")
	f.String("style", "", "target naming: none, dialect or custom")
	f.String("casing", "", "casing for --style=custom: unchanged, lower or upper")
	f.StringSlice("exclude-table", nil, "glob of tables to skip; repeatable")
	f.String("exclude-file", "", "file of table globs to skip, one per line; '#' starts a comment")
	f.StringSlice("exclude-column", nil, "glob of columns to drop, as column or table.column; repeatable")
	f.Int("batch-size", 0, "rows per bulk batch")
	f.String("metrics-backend", "", "metrics backend: none, prometheus or datadog")
	f.String("metrics-addr", "", "Pushgateway URL or DogStatsD address")
	return cmd
}

// runConfig loads the run file, if any, and applies flag overrides.
func (a *app) runConfig(cmd *cobra.Command) (config.Run, error) {
	r := config.Defaults()
	if path := a.v.GetString("config"); path != "" {
		var err error
		if r, err = config.Load(path); err != nil {
			return r, err
		}
	}

	set := func(name string, dst *string) {
		if a.v.IsSet(name) {
			*dst = a.v.GetString(name)
		}
	}
	set("job", &r.Job)
	set("source-kind", &r.Source.Kind)
	set("source", &r.Source.DSN)
	set("target-kind", &r.Target.Kind)
	set("target", &r.Target.DSN)
	set("style", &r.Mapping.Style)
	set("casing", &r.Mapping.Casing)
	set("metrics-backend", &r.Metrics.Backend)
	set("metrics-addr", &r.Metrics.Addr)
	if a.v.IsSet("batch-size") {
		r.Load.BatchSize = a.v.GetInt("batch-size")
	}
	if t := stringSlice(a.v, cmd.Flags(), "exclude-table"); len(t) > 0 {
		r.Mapping.ExcludeTables = append(r.Mapping.ExcludeTables, t...)
	}
	if c := stringSlice(a.v, cmd.Flags(), "exclude-column"); len(c) > 0 {
		r.Mapping.ExcludeColumns = append(r.Mapping.ExcludeColumns, c...)
	}
	if path := a.v.GetString("exclude-file"); path != "" {
		list, err := file.ReadList(path)
		if err != nil {
			return r, fmt.Errorf("exclude file: %w", err)
		}
		r.Mapping.ExcludeTables = append(r.Mapping.ExcludeTables, list...)
	}
	if r.Mapping.Style == "custom" && r.Mapping.Separator == "" {
		r.Mapping.Separator = "_"
	}
	return r, nil
}

func (a *app) endpointProvider(r config.Run, e config.Endpoint) (storage.Provider, error) {
	cfg := r.StorageConfig(config.ApplyCredentials(a.v, e))
	cfg.Logger = a.storage
	return storage.New(cfg)
}

// setupMetrics installs the configured backend and returns a function that
// flushes it. Backend failures disable metrics; they never fail the run.
func (a *app) setupMetrics(r config.Run) (func(), error) {
	nop := func() {}
	var (
		b   metrics.Backend
		err error
	)
	switch strings.ToLower(r.Metrics.Backend) {
	case "", "none":
		return nop, nil
	case "prometheus":
		b, err = prompush.NewBackend(r.Job, r.Metrics.Addr)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       r.Metrics.Addr,
			GlobalTags: append([]string{"job:" + r.Job}, r.Metrics.Tags...),
		})
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", r.Metrics.Backend)
	}
	if err != nil {
		a.logger.Printf("metrics: backend=%s init failed: %v; metrics disabled", r.Metrics.Backend, err)
		return nop, nil
	}
	a.logger.Printf("metrics: backend=%s addr=%s job=%s", r.Metrics.Backend, r.Metrics.Addr, r.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			a.logger.Printf("metrics: flush error: %v", err)
		}
	}, nil
}

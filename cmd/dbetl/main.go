// Command dbetl moves tables between databases and loads delimited files
// into them.
//
//	dbetl migrate --config run.toml
//	dbetl import postgres sales orders.csv --table orders
//	dbetl analyze orders.csv
//	cat orders.csv | dbetl import sqlite sales.db . --table orders --schema orders.schema
//	dbetl select orders.csv . 0 2 5
//	dbetl export sqlite sales orders orders.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory.
	_ "dbetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbetl: %v\n", err)
		os.Exit(1)
	}
}

package postgres

import "dbetl/internal/storage"

// newProvider is a test hook that points to New by default.
var newProvider = New

// init registers the "postgres" backend with the storage factory so callers
// can obtain a Provider via storage.New without importing this package.
//
// Typical usage:
//
//	p, err := storage.New(storage.Config{Kind: "pg", DSN: "sales"})
//	conn, err := p.Open(ctx)
//	defer conn.Close()
func init() {
	storage.Register(Kind, func(cfg storage.Config) (storage.Provider, error) {
		p, err := newProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}, "pg", "postgresql", "npgsql")
}

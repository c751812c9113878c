package mssql

import "dbetl/internal/storage"

// newProvider is a test hook that points to New by default.
var newProvider = New

func init() {
	storage.Register(Kind, func(cfg storage.Config) (storage.Provider, error) {
		p, err := newProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}, "sqlserver")
}

package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a Provider from configuration. Backends register one per
// kind from their init functions.
type Factory func(cfg Config) (Provider, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
	aliases   = map[string]string{}
)

// Register adds (or replaces) the factory for kind. Extra names resolve to
// the same kind, e.g. "pg" for "postgres".
func Register(kind string, fn Factory, alias ...string) {
	regMu.Lock()
	defer regMu.Unlock()
	kind = strings.ToLower(kind)
	factories[kind] = fn
	for _, a := range alias {
		aliases[strings.ToLower(a)] = kind
	}
}

// Canonical resolves kind or one of its aliases to the registered kind.
func Canonical(kind string) (string, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	k := strings.ToLower(strings.TrimSpace(kind))
	if a, ok := aliases[k]; ok {
		k = a
	}
	_, ok := factories[k]
	return k, ok
}

// New builds the Provider registered for cfg.Kind (case-insensitive).
func New(cfg Config) (Provider, error) {
	kind, ok := Canonical(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	regMu.RLock()
	fn := factories[kind]
	regMu.RUnlock()
	cfg.Kind = kind
	return fn(cfg)
}

// Kinds lists registered kinds in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

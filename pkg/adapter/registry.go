package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(logger *slog.Logger) Adapter

// ErrUnknownAdapter matches every UnknownAdapterError under errors.Is.
var ErrUnknownAdapter = errors.New("unknown adapter type")

type registration struct {
	name    string
	factory Factory
}

var (
	registryMu sync.RWMutex
	// keyed by lower-cased name and alias
	registry = make(map[string]registration)
)

// Register adds an adapter factory under name and any aliases, e.g.
// "postgres" with "postgresql". Names match case-insensitively and a later
// registration replaces an earlier one.
// Called by adapter implementations in their init() functions.
func Register(name string, factory Factory, aliases ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	r := registration{name: name, factory: factory}
	registry[strings.ToLower(name)] = r
	for _, alias := range aliases {
		registry[strings.ToLower(alias)] = r
	}
}

// Lookup resolves a name or alias to the adapter's registered name and
// factory.
func Lookup(name string) (string, Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", nil, false
	}
	return r.name, r.factory, true
}

// IsRegistered reports whether name or an alias of that name is known.
func IsRegistered(name string) bool {
	_, _, ok := Lookup(name)
	return ok
}

// ListAdapters returns the registered adapter names, without aliases, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	seen := make(map[string]bool, len(registry))
	names := make([]string, 0, len(registry))
	for _, r := range registry {
		if !seen[r.name] {
			seen[r.name] = true
			names = append(names, r.name)
		}
	}
	sort.Strings(names)
	return names
}

// NewAdapter creates an unconnected adapter for cfg.Type.
// The logger is passed to the adapter constructor (nil uses discard logger).
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if strings.TrimSpace(cfg.Type) == "" {
		return nil, errors.New("adapter type not specified")
	}
	_, factory, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// Connect creates the adapter for cfg.Type and connects it. The adapter
// is closed again when the connection fails.
func Connect(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	adp, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		_ = adp.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", adp.DialectName())
	}
	return adp, nil
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check connection.type in leapdb.yaml or the --type flag", e.Type, e.Available)
}

// Is reports ErrUnknownAdapter as a match.
func (e *UnknownAdapterError) Is(target error) bool {
	return target == ErrUnknownAdapter
}

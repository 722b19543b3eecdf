package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a BaseSQLAdapter whose Connect hands out a sqlmock
// connection or a fixed error.
type stubAdapter struct {
	BaseSQLAdapter
	connectErr error
	closed     bool
}

func (s *stubAdapter) Connect(_ context.Context, cfg Config) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	db, _, err := sqlmock.New()
	if err != nil {
		return err
	}
	s.DB = db
	s.Cfg = cfg
	return nil
}

func (s *stubAdapter) Close() error {
	s.closed = true
	return s.BaseSQLAdapter.Close()
}

func (s *stubAdapter) GetTableMetadata(_ context.Context, table string) (*Metadata, error) {
	return nil, NotFound(table)
}

func (s *stubAdapter) ListTables(context.Context) ([]string, error) { return nil, nil }

func (s *stubAdapter) DialectName() string { return "stub" }

func TestRegister_NamesAndAliases(t *testing.T) {
	Register("Stub_Registry", func(_ *slog.Logger) Adapter { return &stubAdapter{} }, "stub_alias")

	tests := []struct {
		lookup string
		found  bool
	}{
		{"Stub_Registry", true},
		{"stub_registry", true},
		{"  STUB_REGISTRY ", true},
		{"stub_alias", true},
		{"STUB_ALIAS", true},
		{"stub_other", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.lookup, func(t *testing.T) {
			name, factory, ok := Lookup(tt.lookup)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.found, IsRegistered(tt.lookup))
			if tt.found {
				assert.Equal(t, "Stub_Registry", name)
				require.NotNil(t, factory)
				assert.Equal(t, "stub", factory(nil).DialectName())
			}
		})
	}

	names := ListAdapters()
	assert.Contains(t, names, "Stub_Registry")
	assert.NotContains(t, names, "stub_alias", "aliases are not listed")
}

func TestNewAdapter_Errors(t *testing.T) {
	_, err := NewAdapter(Config{Type: "  "}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())

	_, err = NewAdapter(Config{Type: "fake_db"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAdapter))

	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "fake_db", unknown.Type)
	assert.Equal(t, ListAdapters(), unknown.Available)
	assert.Contains(t, err.Error(), "fake_db")
	assert.Contains(t, err.Error(), "leapdb.yaml")
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	var built *stubAdapter
	Register("stub_connect", func(_ *slog.Logger) Adapter {
		built = &stubAdapter{}
		return built
	})
	adp, err := Connect(ctx, core.AdapterConfig{Type: "STUB_CONNECT", Path: "x.db"}, nil)
	require.NoError(t, err)
	assert.Same(t, built, adp)
	assert.Equal(t, "x.db", built.Cfg.Path)
	require.NoError(t, adp.Close())

	Register("stub_refused", func(_ *slog.Logger) Adapter {
		built = &stubAdapter{connectErr: errors.New("connection refused")}
		return built
	})
	_, err = Connect(ctx, core.AdapterConfig{Type: "stub_refused"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to stub")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, built.closed, "adapter is closed after a failed connect")

	_, err = Connect(ctx, core.AdapterConfig{Type: "stub_missing"}, nil)
	assert.True(t, errors.Is(err, ErrUnknownAdapter))
}

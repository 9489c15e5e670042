package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartwallet/internal/config"
	"smartwallet/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    Config
		wantErr bool
	}{
		{"nil config", nil, Config{}, true},
		{"unknown backend", &config.Config{DataBackend: "sheets"}, Config{}, true},
		{
			"sqlite",
			&config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/w.db"},
			Config{Type: SQLiteBackend, SQLiteDBPath: "/tmp/w.db"},
			false,
		},
		{"memory", &config.Config{DataBackend: "memory"}, Config{Type: MemoryBackend}, false},
		{"case and space folded", &config.Config{DataBackend: " Memory "}, Config{Type: MemoryBackend}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: "x"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Equal(t, []string{"memory", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)

	assert.IsType(t, &storage.MemoryStore{}, res.Store)
	assert.NoError(t, res.Ready(ctx))
	assert.NoError(t, res.Close())
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wallet.db")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	require.NoError(t, res.Ready(ctx))

	require.NoError(t, res.Store.Put(ctx, storage.KeyTheme, []byte(`"dark"`)))
	require.NoError(t, res.Close())

	// Reopening sees the committed record.
	res, err = NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer res.Close()
	v, ok, err := res.Store.Get(ctx, storage.KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"dark"`, string(v))
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}

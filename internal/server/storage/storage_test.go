package storage

import (
	"context"
	"testing"

	"akeno/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	value, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", value)

	// Last write wins
	require.NoError(t, s.Set(ctx, "a", "2"))
	value, _, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", value)

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is not an error
	require.NoError(t, s.Delete(ctx, "a"))
}

func TestMemoryStoreGetAll(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "audit:002", "b"))
	require.NoError(t, s.Set(ctx, "audit:001", "a"))
	require.NoError(t, s.Set(ctx, "credential:web-1", "c"))

	kvs, err := s.GetAll(ctx, "audit:")
	require.NoError(t, err)
	require.Len(t, kvs, 2)
	assert.Equal(t, "audit:001", kvs[0].Key)
	assert.Equal(t, "audit:002", kvs[1].Key)

	all, err := s.GetAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Driver: "memory"}, false},
		{"sqlite with dsn", Config{Driver: "sqlite", DSN: "akeno.db"}, false},
		{"sqlite without dsn", Config{Driver: "sqlite"}, true},
		{"mysql without dsn", Config{Driver: "mysql"}, true},
		{"unknown driver", Config{Driver: "cassandra"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}

	bad := Config{Driver: "cassandra"}
	assert.ErrorIs(t, bad.Validate(), types.ErrInvalidDriver)
}

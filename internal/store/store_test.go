package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlStore, err := OpenSQLite(context.Background(), "file:"+filepath.Join(t.TempDir(), "formvis.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestStore_PutGetListDelete(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "smoking")
			require.ErrorIs(t, err, ErrNotFound)

			rec, err := s.Put(ctx, "smoking", []byte(`{"id":"smoking"}`))
			require.NoError(t, err)
			assert.Equal(t, "smoking", rec.ID)
			assert.WithinDuration(t, time.Now(), rec.UpdatedAt, time.Minute)

			_, err = s.Put(ctx, "ibd", []byte(`{"id":"ibd"}`))
			require.NoError(t, err)

			got, err := s.Get(ctx, "smoking")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"smoking"}`, string(got.Definition))

			// overwrite keeps a single record
			_, err = s.Put(ctx, "smoking", []byte(`{"id":"smoking","title":"v2"}`))
			require.NoError(t, err)
			got, err = s.Get(ctx, "smoking")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"smoking","title":"v2"}`, string(got.Definition))

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "ibd", all[0].ID)
			assert.Equal(t, "smoking", all[1].ID)

			require.NoError(t, s.Delete(ctx, "ibd"))
			require.ErrorIs(t, s.Delete(ctx, "ibd"), ErrNotFound)
			all, err = s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestMemoryStore_CopiesDefinitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	def := []byte(`{"id":"a"}`)
	_, err := s.Put(ctx, "a", def)
	require.NoError(t, err)
	def[2] = 'X'

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a"}`, string(got.Definition))
}

func TestSQLStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "reopen.db")

	s, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	_, err = s.Put(ctx, "a", []byte(`{"id":"a"}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

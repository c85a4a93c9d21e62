package staging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	id, err := store.Put(ctx, Entry{ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entry, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", entry.ContentType)
	assert.Equal(t, []byte("png"), entry.Data)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Minute))
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	id, err := store.Put(context.Background(), Entry{Data: []byte("x")})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	storeContract(t, NewRedisStore(client, time.Minute))
}

func TestRedisStore_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)

	id, err := store.Put(context.Background(), Entry{Data: []byte("x")})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStager(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	stager := NewStager(store, "http://reports:4000")

	url, release, err := stager.Stage(context.Background(), "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://reports:4000/api/staged/"))

	id := strings.TrimPrefix(url, "http://reports:4000/api/staged/")
	entry, err := stager.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), entry.Data)

	release()

	_, err = stager.Lookup(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

package infra_redis_session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, "session"), mr
}

func testUser() model.User {
	return model.User{
		ID:    uuid.New(),
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  model.RoleUser,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := testUser()

	require.NoError(t, store.Put(ctx, user))

	got, err := store.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.Role, got.Role)
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutOverwrites(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := testUser()

	require.NoError(t, store.Put(ctx, user))
	user.Name = "Alice Updated"
	require.NoError(t, store.Put(ctx, user))

	got, err := store.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice Updated", got.Name)
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := testUser()

	require.NoError(t, store.Put(ctx, user))
	require.NoError(t, store.Delete(ctx, user.ID))

	got, err := store.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnknownSchemaVersionRejected(t *testing.T) {
	store, mr := newTestStore(t)
	user := testUser()

	mr.Set("session:"+user.ID.String(), `{"v":99,"user":{}}`)

	_, err := store.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestSnapshotNeverStoresPasswordHash(t *testing.T) {
	store, mr := newTestStore(t)
	user := testUser()
	user.PasswordHash = "$2a$10$secret"

	require.NoError(t, store.Put(context.Background(), user))

	raw, err := mr.Get("session:" + user.ID.String())
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")
}

package objectstore_test

import (
	"bytes"
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fileflow/pkg/storage/objectstore"
)

func TestMemory_PutGetStat(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemory("media", "http://cdn.test")
	payload := []byte("hello")

	require.NoError(t, store.Put(ctx, "a/b.txt", bytes.NewReader(payload), int64(len(payload)), "text/plain", map[string]string{"k": "v"}))

	got, err := store.Get(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	info, err := store.Stat(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, "v", info.Metadata["k"])
	assert.Equal(t, 1, store.Writes())
}

func TestMemory_SizeMismatch(t *testing.T) {
	store := objectstore.NewMemory("", "")

	err := store.Put(context.Background(), "k", bytes.NewReader([]byte("abc")), 10, "", nil)

	assert.Error(t, err)
	assert.Equal(t, 0, store.Writes())
}

func TestMemory_MissingObject(t *testing.T) {
	store := objectstore.NewMemory("", "")

	_, err := store.Stat(context.Background(), "nope")
	assert.ErrorIs(t, err, objectstore.ErrObjectNotFound)

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, objectstore.ErrObjectNotFound)
}

func TestMemory_VisibilityLag(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemory("", "")
	store.SetVisibilityLag(2)
	require.NoError(t, store.Put(ctx, "k", bytes.NewReader(nil), 0, "", nil))

	first, _ := store.Exists(ctx, "", "k")
	second, _ := store.Exists(ctx, "", "k")
	third, _ := store.Exists(ctx, "", "k")

	assert.False(t, first)
	assert.False(t, second)
	assert.True(t, third)
}

func TestMemory_OtherBucketIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemory("media", "")
	require.NoError(t, store.Put(ctx, "k", bytes.NewReader(nil), 0, "", nil))

	ok, err := store.Exists(ctx, "archive", "k")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_URLs(t *testing.T) {
	store := objectstore.NewMemory("media", "http://cdn.test/")

	assert.Equal(t, "http://cdn.test/media/dir/my%20file.txt", store.PublicURL("", "dir/my file.txt"))
	assert.Equal(t, "http://cdn.test/other/x.txt", store.PublicURL("other", "x.txt"))

	first, err := store.PresignedURL(context.Background(), "", "x.txt", time.Minute)
	require.NoError(t, err)
	second, err := store.PresignedURL(context.Background(), "", "x.txt", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	u, err := url.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, "/media/x.txt", u.Path)
	assert.NotEmpty(t, u.Query().Get("signature"))

	_, err = store.PresignedURL(context.Background(), "", "x.txt", 0)
	assert.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := objectstore.New(context.Background(), objectstore.Config{Provider: "ftp"})

	assert.Error(t, err)
}

func TestNew_Memory(t *testing.T) {
	client, err := objectstore.New(context.Background(), objectstore.Config{Provider: "memory", Bucket: "b"})

	require.NoError(t, err)
	assert.Equal(t, "b", client.Bucket())
}

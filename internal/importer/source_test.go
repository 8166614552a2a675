package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectClient struct {
	objects []minio.ObjectInfo
	opts    minio.ListObjectsOptions
}

func (f *fakeObjectClient) ListObjects(
	_ context.Context, _ string, opts minio.ListObjectsOptions,
) <-chan minio.ObjectInfo {
	f.opts = opts
	ch := make(chan minio.ObjectInfo, len(f.objects))
	for _, o := range f.objects {
		ch <- o
	}
	close(ch)
	return ch
}

func (f *fakeObjectClient) GetObject(context.Context, string, string, minio.GetObjectOptions) (*minio.Object, error) {
	return nil, errors.New("not implemented")
}

func TestObjectSource_ListSkipsFolders(t *testing.T) {
	client := &fakeObjectClient{objects: []minio.ObjectInfo{
		{Key: "exports/2024/b.jsonl"},
		{Key: "exports/2024/"},
		{Key: "exports/2024/a.jsonl"},
	}}
	src := &ObjectSource{client: client, bucket: "descriptors", prefix: "exports/"}

	keys, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/2024/a.jsonl", "exports/2024/b.jsonl"}, keys)
	assert.Equal(t, "exports/", client.opts.Prefix)
	assert.True(t, client.opts.Recursive)
}

func TestObjectSource_ListError(t *testing.T) {
	client := &fakeObjectClient{objects: []minio.ObjectInfo{{Err: errors.New("AccessDenied")}}}
	src := &ObjectSource{client: client, bucket: "descriptors"}

	_, err := src.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestObjectSource_OpenError(t *testing.T) {
	src := &ObjectSource{client: &fakeObjectClient{}, bucket: "descriptors"}

	_, err := src.Open(context.Background(), "a.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descriptors/a.jsonl")
}

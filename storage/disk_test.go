package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskBlobStore_Save_Is_Content_Addressed(t *testing.T) {
	req := require.New(t)
	store, err := NewDiskBlobStore(t.TempDir())
	req.NoError(err)
	ctx := context.Background()

	path, err := store.Save(ctx, "report.pdf", strings.NewReader("blob content"))
	req.NoError(err)
	req.True(strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal("blob content", string(data))

	// Same content collapses to the same path, even under another name
	again, err := store.Save(ctx, "copy.pdf", strings.NewReader("blob content"))
	req.NoError(err)
	req.Equal(path, again)

	// Different content lands elsewhere
	other, err := store.Save(ctx, "report.pdf", strings.NewReader("different"))
	req.NoError(err)
	req.NotEqual(path, other)
}

func TestDiskBlobStore_Save_Honors_Cancelled_Context(t *testing.T) {
	req := require.New(t)
	store, err := NewDiskBlobStore(t.TempDir())
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, "report.pdf", strings.NewReader("blob"))
	req.Error(err)
}

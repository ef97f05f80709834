package rrsched

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/rrsched/service/channel"
	"github.com/viant/rrsched/service/dump"
	mmemory "github.com/viant/rrsched/service/messaging/memory"
)

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("transport and owned sink", func(t *testing.T) {
		transport := channel.New(mmemory.DefaultConfig(), 1, 2)
		recorder := &dump.Recorder{}
		require.NoError(t, release(ctx, transport, recorder))
		assert.True(t, recorder.Closed())
		_, err := transport.Receive(ctx)
		assert.Error(t, err)
	})

	t.Run("storage sink uploads on release", func(t *testing.T) {
		fs := afs.New()
		storage, err := dump.NewStorage(fs, dump.Config{URL: "mem://localhost/rrsched/release/dump.txt", Format: dump.FormatText})
		require.NoError(t, err)
		closer := &failingCloser{}
		err = release(ctx, closer, storage)
		assert.EqualError(t, err, "close failed")
		assert.True(t, closer.closed)
		ok, err := fs.Exists(ctx, storage.URL)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Error(t, storage.Snapshot(ctx, nil))
	})

	t.Run("external sink", func(t *testing.T) {
		closer := &failingCloser{}
		assert.Error(t, release(ctx, closer, nil))
		assert.True(t, closer.closed)
	})
}

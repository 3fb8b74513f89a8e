//go:build unit

package inbox

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInbox(t *testing.T) {
	t.Run("send and receive", func(t *testing.T) {
		ib := New[int](2, 10*time.Millisecond, discardLogger())
		require.True(t, ib.Send(1))
		require.True(t, ib.Send(2))

		v, ok := ib.TryReceive()
		require.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, int64(2), ib.Sent())
		assert.Equal(t, int64(1), ib.Received())
		assert.Equal(t, 1, ib.Depth())
	})

	t.Run("send times out when full", func(t *testing.T) {
		ib := New[int](1, 5*time.Millisecond, discardLogger())
		require.True(t, ib.Send(1))
		assert.False(t, ib.Send(2))
		assert.Equal(t, int64(1), ib.Timeouts())
	})

	t.Run("closed inbox rejects sends and drains", func(t *testing.T) {
		ib := New[string](1, 5*time.Millisecond, discardLogger())
		require.True(t, ib.Send("a"))
		ib.Close()
		ib.Close()

		assert.False(t, ib.Send("b"))
		v, ok := <-ib.C()
		assert.True(t, ok)
		assert.Equal(t, "a", v)
		_, ok = <-ib.C()
		assert.False(t, ok)
	})

	t.Run("empty try receive", func(t *testing.T) {
		ib := New[int](1, time.Millisecond, discardLogger())
		_, ok := ib.TryReceive()
		assert.False(t, ok)
	})
}

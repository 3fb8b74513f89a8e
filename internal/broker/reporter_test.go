//go:build unit

package broker_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"feasibility-backend/internal/broker"
	"feasibility-backend/internal/domain/query"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []broker.StatusUpdate
}

func (p *recordingPublisher) Publish(u broker.StatusUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *recordingPublisher) terminal() []broker.StatusUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broker.StatusUpdate
	for _, u := range p.updates {
		if u.Status.Terminal() {
			out = append(out, u)
		}
	}
	return out
}

func TestReporter(t *testing.T) {
	sites := broker.NewSiteCatalogue(map[string]string{"1": "Site A"})

	t.Run("completed once per site with display name", func(t *testing.T) {
		pub := &recordingPublisher{}
		r := broker.NewReporter(query.BrokerMock, pub, sites, nil, discardLogger())
		localID := uuid.New()
		h := broker.NewRegistry().Create(localID)
		require.NoError(t, h.Publish())

		r.Executing(h, "1")
		r.Completed(h, "1", 10)
		r.Completed(h, "1", 99)
		r.Failed(h, "1")

		got := pub.terminal()
		require.Len(t, got, 1)
		assert.Equal(t, localID, got[0].LocalQueryID)
		assert.Equal(t, query.BrokerMock, got[0].Broker)
		assert.Equal(t, broker.StatusCompleted, got[0].Status)
		assert.Equal(t, &query.ResultLine{SiteName: "Site A", Type: query.ResultSuccess, PatientCount: 10}, got[0].Result)
	})

	t.Run("fail executing covers every open site", func(t *testing.T) {
		pub := &recordingPublisher{}
		r := broker.NewReporter(query.BrokerAktin, pub, sites, nil, discardLogger())
		h := broker.NewRegistry().Create(uuid.New())
		require.NoError(t, h.Publish())
		r.Executing(h, "1")
		r.Executing(h, "2")
		r.Completed(h, "2", 5)

		r.FailExecuting(h)

		got := pub.terminal()
		require.Len(t, got, 2)
		assert.Equal(t, broker.StatusFailed, got[1].Status)
		assert.Equal(t, "Site A", got[1].Result.SiteName)
		assert.Equal(t, query.ResultError, got[1].Result.Type)
		assert.Equal(t, broker.StateCompleted, h.State())
	})

	t.Run("counts are obfuscated before storing", func(t *testing.T) {
		pub := &recordingPublisher{}
		obf := broker.NewObfuscatorWithSource(func(int) int { return 0 })
		r := broker.NewReporter(query.BrokerMock, pub, nil, obf, discardLogger())
		h := broker.NewRegistry().Create(uuid.New())
		require.NoError(t, h.Publish())

		r.Completed(h, "7", 100)
		n, err := h.Feasibility("7")
		require.NoError(t, err)
		assert.Equal(t, 95, n)
		assert.Equal(t, "7", pub.terminal()[0].Result.SiteName)
	})
}

func TestBus(t *testing.T) {
	bus := broker.NewBus(4, 10*time.Millisecond, discardLogger())
	a := bus.Subscribe()
	b := bus.Subscribe()

	u := broker.StatusUpdate{LocalQueryID: uuid.New(), SiteID: "1", Status: broker.StatusCompleted}
	bus.Publish(u)

	for _, ib := range []interface {
		TryReceive() (broker.StatusUpdate, bool)
	}{a, b} {
		got, ok := ib.TryReceive()
		require.True(t, ok)
		assert.Equal(t, u, got)
	}

	bus.Close()
	_, ok := <-a.C()
	assert.False(t, ok)
	bus.Publish(u)
}

func TestSiteCatalogue(t *testing.T) {
	t.Run("loads toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sites.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[[site]]
id = "1"
name = "University Hospital A"

[[site]]
id = "2"
name = "University Hospital B"
`), 0o600))

		c, err := broker.LoadSiteCatalogue(path)
		require.NoError(t, err)
		name, err := c.Name("2")
		require.NoError(t, err)
		assert.Equal(t, "University Hospital B", name)

		name, err = c.Name("9")
		require.NoError(t, err)
		assert.Equal(t, "9", name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := broker.LoadSiteCatalogue(filepath.Join(t.TempDir(), "none.toml"))
		assert.Error(t, err)
	})

	t.Run("incomplete entry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sites.toml")
		require.NoError(t, os.WriteFile(path, []byte("[[site]]\nid = \"1\"\n"), 0o600))
		_, err := broker.LoadSiteCatalogue(path)
		assert.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		c, err := broker.LoadSiteCatalogue("")
		require.NoError(t, err)
		_, err = c.Name("")
		assert.Error(t, err)
	})
}

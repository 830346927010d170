package scrapers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/backend/internal/models"
)

type staticScraper struct {
	name string
}

func (s *staticScraper) Source() string { return s.name }

func (s *staticScraper) Fetch(ctx context.Context, query Query) ([]models.RawListing, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticScraper{name: "lever-acme"})
	r.Register(&staticScraper{name: "greenhouse-heb"})

	t.Run("Should look up adapters by name", func(t *testing.T) {
		s, ok := r.Get("lever-acme")
		require.True(t, ok)
		assert.Equal(t, "lever-acme", s.Source())

		_, ok = r.Get("unknown")
		assert.False(t, ok)
	})

	t.Run("Should list names sorted", func(t *testing.T) {
		assert.Equal(t, []string{"greenhouse-heb", "lever-acme"}, r.Names())
	})
}

func TestThrottle(t *testing.T) {
	t.Run("Should enforce the minimum delay between requests", func(t *testing.T) {
		th := newThrottle(30 * time.Millisecond)

		start := time.Now()
		require.NoError(t, th.wait(context.Background()))
		require.NoError(t, th.wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("Should not delay the first request", func(t *testing.T) {
		th := newThrottle(time.Second)

		start := time.Now()
		require.NoError(t, th.wait(context.Background()))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("Should give up when the context is cancelled", func(t *testing.T) {
		th := newThrottle(time.Minute)
		require.NoError(t, th.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := th.wait(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

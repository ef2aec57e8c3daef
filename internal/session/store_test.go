package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad-image-studio/internal/adgen"
)

func TestStoreCreateAndSnapshot(t *testing.T) {
	store := NewStore()

	id, sess := store.Create(5)
	require.NotEmpty(t, id)
	assert.Equal(t, 5, sess.MaxIterations)
	assert.Equal(t, adgen.StateEmpty, sess.State())

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.MaxIterations)

	id2, _ := store.Create(3)
	assert.NotEqual(t, id, id2)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	id, _ := store.Create(3)

	require.NoError(t, store.Update(id, func(s *adgen.Session) error {
		s.Concept = &adgen.AdConcept{Headline: "h"}
		s.Iterations = append(s.Iterations, adgen.Iteration{Index: 0})
		return nil
	}))

	snap, err := store.Snapshot(id)
	require.NoError(t, err)

	require.NoError(t, store.Update(id, func(s *adgen.Session) error {
		s.Iterations = append(s.Iterations, adgen.Iteration{Index: 1})
		return nil
	}))

	assert.Len(t, snap.Iterations, 1)
}

func TestStoreUnknownID(t *testing.T) {
	store := NewStore()

	_, err := store.Snapshot("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Update("missing", func(*adgen.Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	store.Delete("missing") // no-op
}

func TestStoreEnsure(t *testing.T) {
	store := NewStore()

	first := store.Ensure("tg:42", 4)
	assert.Equal(t, 4, first.MaxIterations)

	// Second Ensure returns the same session; the budget argument is ignored.
	second := store.Ensure("tg:42", 9)
	assert.Same(t, first, second)
	assert.Equal(t, 4, second.MaxIterations)

	store.Delete("tg:42")
	third := store.Ensure("tg:42", 2)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, third.MaxIterations)
}

func TestStoreUpdateRejectsConcurrentSteps(t *testing.T) {
	store := NewStore()
	id, _ := store.Create(3)

	entered := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Update(id, func(*adgen.Session) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	err := store.Update(id, func(*adgen.Session) error { return nil })
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	wg.Wait()

	// Once the in-flight update finishes, the session accepts work again.
	assert.NoError(t, store.Update(id, func(*adgen.Session) error { return nil }))
}

// Renders must not observe a seed or step mid-append; run with -race.
func TestStoreSnapshotDuringUpdate(t *testing.T) {
	store := NewStore()
	id, _ := store.Create(adgen.MaxIterationLimit)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = store.Update(id, func(s *adgen.Session) error {
				s.Concept = &adgen.AdConcept{Headline: "h"}
				s.Iterations = append(s.Iterations, adgen.Iteration{Index: len(s.Iterations)})
				s.Iterations = s.Iterations[:0]
				return nil
			})
		}
	}()

	for {
		select {
		case <-done:
			snap, err := store.Snapshot(id)
			require.NoError(t, err)
			assert.Empty(t, snap.Iterations)
			return
		default:
			snap, err := store.Snapshot(id)
			require.NoError(t, err)
			// A copy is either before or after an update, never inside one.
			assert.LessOrEqual(t, len(snap.Iterations), 1)
		}
	}
}

func TestStoreUpdatePropagatesError(t *testing.T) {
	store := NewStore()
	id, _ := store.Create(3)

	boom := errors.New("boom")
	err := store.Update(id, func(*adgen.Session) error { return boom })
	assert.ErrorIs(t, err, boom)
}

package slideshow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func photos(n int) []Photo {
	out := make([]Photo, n)
	for i := range out {
		id := fmt.Sprintf("P%d", i+1)
		out[i] = Photo{ID: id, URL: "/gallery/" + id + ".jpg", Alt: "photo " + id}
	}
	return out
}

// seqRand returns the queued values in order, then falls back to zero.
type seqRand struct {
	vals []int
}

func (s *seqRand) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

func ids(ps []Photo) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func assertInvariants(t *testing.T, st State, total int) {
	t.Helper()
	seen := map[string]bool{}
	for _, p := range st.Displayed {
		require.False(t, seen[p.ID], "duplicate photo %s in %v", p.ID, ids(st.Displayed))
		seen[p.ID] = true
	}
	assert.Len(t, st.Displayed, min(WindowSize, total))
	if st.Fading() {
		assert.GreaterOrEqual(t, st.FadingSlot, 0)
		assert.Less(t, st.FadingSlot, WindowSize)
	}
}

func TestInitialWindowIsFirstSix(t *testing.T) {
	r := New(NewFeed(photos(10)))
	require.True(t, r.Sync())

	st := r.State()
	assert.Equal(t, []string{"P1", "P2", "P3", "P4", "P5", "P6"}, ids(st.Displayed))
	assert.False(t, st.Fading())
	assert.Equal(t, ids(st.Displayed), ids(InitialWindow(photos(10))))
}

func TestForcedSlotSwap(t *testing.T) {
	r := New(NewFeed(photos(10)), WithRand(&seqRand{vals: []int{2, 3}}))

	slot, ok := r.BeginFade()
	require.True(t, ok)
	require.Equal(t, 2, slot)
	assert.Equal(t, 2, r.State().FadingSlot)
	assert.Equal(t, "P3", r.State().Displayed[2].ID)

	require.True(t, r.CompleteSwap())
	st := r.State()
	assert.Contains(t, []string{"P7", "P8", "P9", "P10"}, st.Displayed[2].ID)
	assert.Equal(t, "P10", st.Displayed[2].ID)
	assert.Equal(t, NoSlot, st.FadingSlot)
	assertInvariants(t, st, 10)
}

func TestSixPhotosNeverRotate(t *testing.T) {
	r := New(NewFeed(photos(6)), WithRand(NewRand(1)))
	for range 100 {
		_, ok := r.BeginFade()
		require.False(t, ok)
		require.False(t, r.CompleteSwap())
	}
	st := r.State()
	assert.Equal(t, ids(photos(6)), ids(st.Displayed))
	assert.False(t, st.Fading())
}

func TestFewerThanWindowIsStatic(t *testing.T) {
	r := New(NewFeed(photos(3)))
	_, ok := r.BeginFade()
	assert.False(t, ok)
	assert.Equal(t, []string{"P1", "P2", "P3"}, ids(r.State().Displayed))
}

func TestSevenPhotosAlwaysSwap(t *testing.T) {
	r := New(NewFeed(photos(7)), WithRand(NewRand(42)))
	for range 200 {
		_, ok := r.BeginFade()
		require.True(t, ok)
		require.True(t, r.CompleteSwap())
		assertInvariants(t, r.State(), 7)
	}
}

func TestEmptyPoolSkipsSwap(t *testing.T) {
	feed := NewFeed(photos(7))
	r := New(feed, WithRand(&seqRand{vals: []int{1}}))

	_, ok := r.BeginFade()
	require.True(t, ok)
	before := r.State().Displayed

	// the only undisplayed photo disappears during the fade
	feed.Publish(photos(6))

	assert.False(t, r.CompleteSwap())
	st := r.State()
	assert.Equal(t, ids(before), ids(st.Displayed))
	assert.False(t, st.Fading())
}

func TestOnlyOneFadeAtATime(t *testing.T) {
	r := New(NewFeed(photos(10)), WithRand(&seqRand{vals: []int{1, 4}}))

	slot, ok := r.BeginFade()
	require.True(t, ok)
	_, ok = r.BeginFade()
	assert.False(t, ok)
	assert.Equal(t, slot, r.State().FadingSlot)
}

func TestTeardownDuringFade(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	r := New(NewFeed(photos(10)), WithObserver(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))

	_, ok := r.BeginFade()
	require.True(t, ok)
	before := r.State()
	require.True(t, before.Fading())

	mu.Lock()
	emitted := len(events)
	mu.Unlock()

	r.Close()
	assert.False(t, r.CompleteSwap())
	assert.False(t, r.Sync())
	_, ok = r.BeginFade()
	assert.False(t, ok)

	assert.Equal(t, before, r.State())
	mu.Lock()
	assert.Len(t, events, emitted)
	mu.Unlock()
}

func TestWindowTracksChangingCollection(t *testing.T) {
	feed := NewFeed(photos(10))
	r := New(feed, WithRand(NewRand(7)))

	sizes := []int{10, 12, 4, 0, 6, 7, 20, 2, 9}
	for round := range 300 {
		n := sizes[round%len(sizes)]
		if round%5 == 0 {
			feed.Publish(photos(n))
		}
		total := len(feed.Snapshot().Photos)

		if _, ok := r.BeginFade(); ok {
			assertInvariants(t, r.State(), total)
			r.CompleteSwap()
		} else {
			r.Sync()
		}
		assertInvariants(t, r.State(), total)
	}
}

func TestRemovedPhotoIsReplacedInPlace(t *testing.T) {
	feed := NewFeed(photos(8))
	r := New(feed, WithRand(&seqRand{}))
	r.Sync()

	// drop P3, which sits in slot 2
	all := photos(8)
	feed.Publish(append(all[:2:2], all[3:]...))
	require.True(t, r.Sync())

	st := r.State()
	assert.Equal(t, []string{"P1", "P2", "P7", "P4", "P5", "P6"}, ids(st.Displayed))
}

func TestMetadataRefreshKeepsSlots(t *testing.T) {
	feed := NewFeed(photos(8))
	r := New(feed)
	r.Sync()

	updated := photos(8)
	updated[0].Alt = "new caption"
	feed.Publish(updated)
	require.True(t, r.Sync())
	assert.Equal(t, "new caption", r.State().Displayed[0].Alt)
}

func TestDuplicateIDsInSourceAreIgnored(t *testing.T) {
	ps := append(photos(6), photos(3)...)
	r := New(NewFeed(ps))
	r.Sync()
	_, ok := r.BeginFade()
	assert.False(t, ok)
	assertInvariants(t, r.State(), 6)
}

func TestInitializesWhenCollectionFirstFills(t *testing.T) {
	feed := NewFeed(nil)
	r := New(feed)
	assert.False(t, r.Sync())
	assert.Empty(t, r.State().Displayed)

	feed.Publish(photos(9))
	assert.True(t, r.Sync())
	assert.Equal(t, ids(photos(6)), ids(r.State().Displayed))
}

func TestStateJSON(t *testing.T) {
	b, err := json.Marshal(State{FadingSlot: NoSlot})
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayed":[],"fading_slot":null}`, string(b))

	b, err = json.Marshal(State{Displayed: photos(1), FadingSlot: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayed":[{"id":"P1","url":"/gallery/P1.jpg","alt":"photo P1"}],"fading_slot":0}`, string(b))
}

func TestRunRotatesAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	events := make(chan Event, 256)
	r := New(NewFeed(photos(10)),
		WithInterval(5*time.Millisecond),
		WithFade(time.Millisecond),
		WithRand(NewRand(3)),
		WithObserver(func(e Event) {
			select {
			case events <- e:
			default:
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	first := <-events
	assert.Equal(t, EventReset, first.Kind)
	assert.Len(t, first.State.Displayed, WindowSize)

	swaps := 0
	deadline := time.After(2 * time.Second)
	for swaps < 3 {
		select {
		case e := <-events:
			if e.Kind == EventSwap {
				swaps++
				assert.False(t, e.State.Fading())
				assertInvariants(t, e.State, 10)
			}
		case <-deadline:
			t.Fatal("timed out waiting for swaps")
		}
	}

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))

	st := r.State()
	assert.False(t, r.CompleteSwap())
	assert.Equal(t, st, r.State())
}

// Package slideshow rotates a fixed window of gallery photos, swapping one
// displayed photo for an undisplayed one on every tick with a fade transition.
package slideshow

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	// WindowSize is the number of visible slots in the gallery.
	WindowSize = 6

	DefaultInterval = 3 * time.Second
	DefaultFade     = 500 * time.Millisecond

	// NoSlot marks the absence of an in-flight fade.
	NoSlot = -1
)

type Photo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// State is the visible window. FadingSlot is NoSlot unless a swap is in flight.
type State struct {
	Displayed  []Photo
	FadingSlot int
}

// Fading reports whether a slot is currently fading out.
func (s State) Fading() bool {
	return s.FadingSlot != NoSlot
}

func (s State) MarshalJSON() ([]byte, error) {
	out := struct {
		Displayed  []Photo `json:"displayed"`
		FadingSlot *int    `json:"fading_slot"`
	}{Displayed: s.Displayed}
	if out.Displayed == nil {
		out.Displayed = []Photo{}
	}
	if s.Fading() {
		slot := s.FadingSlot
		out.FadingSlot = &slot
	}
	return json.Marshal(out)
}

type EventKind string

const (
	EventReset EventKind = "reset"
	EventFade  EventKind = "fade"
	EventSwap  EventKind = "swap"
)

// Event is emitted to the observer on every state change.
type Event struct {
	Kind  EventKind `json:"kind"`
	Slot  int       `json:"slot"`
	Photo *Photo    `json:"photo,omitempty"`
	State State     `json:"state"`
}

type Option func(*Rotator)

func WithInterval(d time.Duration) Option {
	return func(r *Rotator) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithFade(d time.Duration) Option {
	return func(r *Rotator) {
		if d > 0 {
			r.fade = d
		}
	}
}

func WithRand(rnd Rand) Option {
	return func(r *Rotator) {
		if rnd != nil {
			r.rnd = rnd
		}
	}
}

// WithObserver registers fn to receive events. fn is called with the rotator
// locked and must not call back into it.
func WithObserver(fn func(Event)) Option {
	return func(r *Rotator) {
		r.observe = fn
	}
}

// Rotator owns the display window of a single gallery view. It is created
// when the view mounts and closed when the view goes away.
type Rotator struct {
	source   Source
	rnd      Rand
	interval time.Duration
	fade     time.Duration
	observe  func(Event)

	mu        sync.Mutex
	displayed []Photo
	fading    int
	total     int
	revision  uint64
	synced    bool
	closed    bool
}

func New(source Source, opts ...Option) *Rotator {
	r := &Rotator{
		source:   source,
		rnd:      defaultRand{},
		interval: DefaultInterval,
		fade:     DefaultFade,
		fading:   NoSlot,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run mounts the rotator and drives it until ctx is cancelled. The rotator is
// closed on return, so a swap pending at cancellation is dropped.
func (r *Rotator) Run(ctx context.Context) error {
	defer r.Close()

	r.mu.Lock()
	r.syncLocked()
	r.emitLocked(EventReset, NoSlot, nil)
	r.mu.Unlock()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, ok := r.BeginFade(); !ok {
			continue
		}

		timer := time.NewTimer(r.fade)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.CompleteSwap()
	}
}

// Sync reads the source and reconciles the window with it. It returns true
// when the window changed.
func (r *Rotator) Sync() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	changed := r.syncLocked()
	if changed {
		r.emitLocked(EventReset, NoSlot, nil)
	}
	return changed
}

// BeginFade picks a random slot and marks it as fading. It does nothing when
// every photo is already displayed or when a fade is already in flight.
func (r *Rotator) BeginFade() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.fading != NoSlot {
		return NoSlot, false
	}
	if r.syncLocked() {
		r.emitLocked(EventReset, NoSlot, nil)
	}
	if r.total <= WindowSize || len(r.displayed) == 0 {
		return NoSlot, false
	}

	slot := r.rnd.Intn(len(r.displayed))
	r.fading = slot
	r.emitLocked(EventFade, slot, nil)
	return slot, true
}

// CompleteSwap replaces the fading slot's photo with a random photo that is
// not displayed anywhere, then clears the fade. When there is nothing to swap
// in the old photo stays and false is returned.
func (r *Rotator) CompleteSwap() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.fading == NoSlot {
		return false
	}
	slot := r.fading
	r.fading = NoSlot

	if slot >= len(r.displayed) {
		r.emitLocked(EventSwap, slot, nil)
		return false
	}

	pool := candidates(r.source.Snapshot().Photos, displayedIDs(r.displayed))
	if len(pool) == 0 {
		kept := r.displayed[slot]
		r.emitLocked(EventSwap, slot, &kept)
		return false
	}

	next := pool[r.rnd.Intn(len(pool))]
	r.displayed[slot] = next
	r.emitLocked(EventSwap, slot, &next)
	return true
}

// State returns a copy of the current window.
func (r *Rotator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Close tears the rotator down. Later calls never mutate state or emit events.
func (r *Rotator) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Rotator) stateLocked() State {
	return State{
		Displayed:  slices.Clone(r.displayed),
		FadingSlot: r.fading,
	}
}

func (r *Rotator) emitLocked(kind EventKind, slot int, photo *Photo) {
	if r.observe == nil || r.closed {
		return
	}
	r.observe(Event{
		Kind:  kind,
		Slot:  slot,
		Photo: photo,
		State: r.stateLocked(),
	})
}

func (r *Rotator) syncLocked() bool {
	snap := r.source.Snapshot()
	if r.synced && snap.Revision == r.revision {
		return false
	}
	r.synced = true
	r.revision = snap.Revision

	photos := uniquePhotos(snap.Photos)
	r.total = len(photos)
	size := min(WindowSize, len(photos))

	if len(r.displayed) == 0 {
		r.displayed = slices.Clone(photos[:size])
		return size > 0
	}

	byID := make(map[string]Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}

	kept := mapset.NewThreadUnsafeSet[string]()
	for _, p := range r.displayed {
		if _, ok := byID[p.ID]; ok {
			kept.Add(p.ID)
		}
	}
	pool := candidates(photos, kept)

	next := make([]Photo, 0, size)
	for _, p := range r.displayed {
		if fresh, ok := byID[p.ID]; ok {
			next = append(next, fresh)
			continue
		}
		if len(pool) == 0 {
			continue
		}
		i := r.rnd.Intn(len(pool))
		next = append(next, pool[i])
		pool = slices.Delete(pool, i, i+1)
	}
	for len(next) < size && len(pool) > 0 {
		next = append(next, pool[0])
		pool = pool[1:]
	}
	if len(next) > size {
		next = next[:size]
	}

	changed := !slices.Equal(next, r.displayed)
	r.displayed = next
	if r.fading >= len(r.displayed) {
		r.fading = NoSlot
	}
	return changed
}

// InitialWindow returns the photos a freshly mounted gallery shows: the first
// WindowSize distinct photos in input order.
func InitialWindow(photos []Photo) []Photo {
	unique := uniquePhotos(photos)
	return slices.Clone(unique[:min(WindowSize, len(unique))])
}

func uniquePhotos(photos []Photo) []Photo {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]Photo, 0, len(photos))
	for _, p := range photos {
		if !seen.Add(p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func displayedIDs(displayed []Photo) mapset.Set[string] {
	ids := mapset.NewThreadUnsafeSet[string]()
	for _, p := range displayed {
		ids.Add(p.ID)
	}
	return ids
}

// candidates returns the photos whose ids are not in shown, in input order.
func candidates(photos []Photo, shown mapset.Set[string]) []Photo {
	seen := mapset.NewThreadUnsafeSet[string]()
	var pool []Photo
	for _, p := range photos {
		if shown.Contains(p.ID) || !seen.Add(p.ID) {
			continue
		}
		pool = append(pool, p)
	}
	return pool
}

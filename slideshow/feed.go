package slideshow

import (
	"slices"
	"sync"
)

// Snapshot is a versioned view of the photo collection. Revision increases on
// every publish, so a reader can tell whether the list changed since it last
// looked.
type Snapshot struct {
	Photos   []Photo
	Revision uint64
}

type Source interface {
	Snapshot() Snapshot
}

// Feed is a Source that is updated by publishing whole photo lists.
type Feed struct {
	mu       sync.RWMutex
	photos   []Photo
	revision uint64
}

func NewFeed(photos []Photo) *Feed {
	f := &Feed{}
	f.Publish(photos)
	return f
}

// Publish replaces the photo list and returns the new revision.
func (f *Feed) Publish(photos []Photo) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = slices.Clone(photos)
	f.revision++
	return f.revision
}

func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Snapshot{
		Photos:   slices.Clone(f.photos),
		Revision: f.revision,
	}
}

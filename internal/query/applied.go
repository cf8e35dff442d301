package query

import (
	"fmt"
	"sync"
)

// Snapshot is an immutable copy of the applied search state.
type Snapshot struct {
	Filters   FilterSet
	Sort      SortSpec
	PageIndex int
}

// DefaultSnapshot is the state a session starts with: no filters, newest
// updates first, first page.
func DefaultSnapshot() Snapshot {
	return Snapshot{Sort: DefaultSort()}
}

// AppliedState is the filter/sort/page that drives the remote query. Every
// mutation replaces the whole state under the lock, so readers never see a
// half-applied update.
type AppliedState struct {
	mu    sync.RWMutex
	state Snapshot
}

func NewAppliedState() *AppliedState {
	return &AppliedState{state: DefaultSnapshot()}
}

func (a *AppliedState) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// ApplyFilters replaces filters and sort together and returns to the first page.
func (a *AppliedState) ApplyFilters(filters FilterSet, sort SortSpec) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Snapshot{Filters: filters, Sort: sort, PageIndex: 0}
	return a.state
}

// SetPage moves to index without touching filters or sort.
func (a *AppliedState) SetPage(index int) (Snapshot, error) {
	if index < 0 {
		return a.Snapshot(), fmt.Errorf("%w: %d", ErrNegativePage, index)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.PageIndex = index
	return a.state, nil
}

// SetSort replaces the ordering and returns to the first page.
func (a *AppliedState) SetSort(key SortKey, descending bool) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Sort = SortSpec{Key: key, Descending: descending}
	a.state.PageIndex = 0
	return a.state
}

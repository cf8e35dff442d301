package query

import "sync"

// DraftStore holds the in-progress form values. Nothing here reaches the
// applied state until the caller commits.
type DraftStore struct {
	mu      sync.Mutex
	filters FilterSet
	sort    SortSpec
}

func NewDraftStore() *DraftStore {
	return &DraftStore{
		filters: DefaultFilters(),
		sort:    DefaultSort(),
	}
}

// SeedFrom overwrites the draft with the applied filters and sort.
func (d *DraftStore) SeedFrom(applied Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = applied.Filters
	d.sort = applied.Sort
}

// SetField updates one filter. Values are not validated; the remote search
// is the only judge of what they mean.
func (d *DraftStore) SetField(name FilterName, value string) {
	if !name.Valid() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters[name] = value
}

// SetSortKey changes the draft sort key. Picking a key from the form
// always sorts descending; an untouched draft keeps the applied direction.
func (d *DraftStore) SetSortKey(key SortKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sort = SortSpec{Key: key, Descending: true}
}

// Commit returns the current draft. The draft itself is left as is.
func (d *DraftStore) Commit() (FilterSet, SortSpec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters, d.sort
}

// Discard drops unsaved edits by re-seeding from the last applied state.
func (d *DraftStore) Discard(applied Snapshot) {
	d.SeedFrom(applied)
}

// Reset restores the form defaults.
func (d *DraftStore) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = DefaultFilters()
	d.sort = DefaultSort()
}

func (d *DraftStore) Field(name FilterName) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters.Get(name)
}

func (d *DraftStore) Filters() FilterSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filters
}

func (d *DraftStore) SortKey() SortKey {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sort.Key
}

func (d *DraftStore) Sort() SortSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sort
}

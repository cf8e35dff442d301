// Package session ties the draft form, the applied query and the search
// controller together behind the gestures a presentation layer issues.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rentcomps/internal/common/errors"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/common/observability"
	"rentcomps/internal/models"
	"rentcomps/internal/query"
	"rentcomps/internal/search"
)

// ErrPageOutOfRange is returned when navigating past the known page count.
var ErrPageOutOfRange = stderrors.New("page out of range")

// View is what a results table renders.
type View struct {
	State     search.State
	Rows      []models.Listing
	PageIndex int
	PageCount int
	Sort      query.SortSpec
	Query     string
	Err       *errors.StandardError
}

// Session owns one user's draft and applied state for its lifetime.
type Session struct {
	ID string

	draft      *query.DraftStore
	applied    *query.AppliedState
	controller *search.Controller
	log        logger.Logger

	mu         sync.Mutex
	editorOpen bool
}

// New starts a session with default applied state and opens the editor,
// seeding the draft from it.
func New(fetcher search.Fetcher, obs *observability.Observability, log logger.Logger) *Session {
	id := uuid.NewString()
	log = logger.ForComponent(log, "session").With(map[string]interface{}{"sessionId": id})

	applied := query.NewAppliedState()
	s := &Session{
		ID:         id,
		draft:      query.NewDraftStore(),
		applied:    applied,
		controller: search.NewController(fetcher, applied, obs, log),
		log:        log,
	}
	s.OpenEditor()

	log.Info("session started", nil)
	return s
}

// OpenEditor seeds the draft from the applied state, dropping unsaved edits.
func (s *Session) OpenEditor() {
	s.draft.SeedFrom(s.applied.Snapshot())
	s.mu.Lock()
	s.editorOpen = true
	s.mu.Unlock()
}

func (s *Session) EditorOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editorOpen
}

// SetField edits one draft filter by its wire name.
func (s *Session) SetField(name, value string) error {
	n, err := query.ParseFilterName(name)
	if err != nil {
		return errors.NewInvalidFilterNameError(name)
	}
	s.draft.SetField(n, value)
	return nil
}

// SetSortKey edits the draft sort key.
func (s *Session) SetSortKey(key string) error {
	k, err := query.ParseSortKey(key)
	if err != nil {
		return errors.NewInvalidSortKeyError(key)
	}
	s.draft.SetSortKey(k)
	return nil
}

// Submit commits the draft into the applied state, closes the editor and
// fetches the first page.
func (s *Session) Submit(ctx context.Context) <-chan struct{} {
	filters, sort := s.draft.Commit()
	s.mu.Lock()
	s.editorOpen = false
	s.mu.Unlock()

	s.log.Info("filters submitted", map[string]interface{}{
		"query": query.Build(query.Snapshot{Filters: filters, Sort: sort}),
	})
	return s.controller.Submit(ctx, filters, sort)
}

// Cancel reverts the draft to the applied state and closes the editor.
func (s *Session) Cancel() {
	s.draft.Discard(s.applied.Snapshot())
	s.mu.Lock()
	s.editorOpen = false
	s.mu.Unlock()
}

// ResetDraft restores the form defaults without touching the applied state.
func (s *Session) ResetDraft() {
	s.draft.Reset()
}

// ChangePage fetches page index of the applied query. Once a page count is
// known, indexes past it are rejected.
func (s *Session) ChangePage(ctx context.Context, index int) (<-chan struct{}, error) {
	if index < 0 {
		return nil, errors.NewInvalidPageIndexError(index)
	}
	if pc := s.controller.PageCount(); pc != search.UnknownPageCount && index > 0 && index >= pc {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, index+1, pc)
	}
	return s.controller.RequestPage(ctx, index)
}

func (s *Session) NextPage(ctx context.Context) (<-chan struct{}, error) {
	return s.ChangePage(ctx, s.applied.Snapshot().PageIndex+1)
}

func (s *Session) PrevPage(ctx context.Context) (<-chan struct{}, error) {
	index := s.applied.Snapshot().PageIndex - 1
	if index < 0 {
		return nil, fmt.Errorf("%w: already on the first page", ErrPageOutOfRange)
	}
	return s.ChangePage(ctx, index)
}

// ChangeSort reorders from the results view. Unlike the form, either
// direction is allowed. The draft is not touched; it picks up the new sort
// the next time the editor opens.
func (s *Session) ChangeSort(ctx context.Context, key string, descending bool) (<-chan struct{}, error) {
	k, err := query.ParseSortKey(key)
	if err != nil {
		return nil, errors.NewInvalidSortKeyError(key)
	}
	return s.controller.SortBy(ctx, k, descending), nil
}

// Refresh re-fetches the current page.
func (s *Session) Refresh(ctx context.Context) <-chan struct{} {
	return s.controller.Refresh(ctx)
}

// Draft returns the current form values.
func (s *Session) Draft() (query.FilterSet, query.SortKey) {
	return s.draft.Filters(), s.draft.SortKey()
}

func (s *Session) Applied() query.Snapshot {
	return s.applied.Snapshot()
}

func (s *Session) View() View {
	snap := s.applied.Snapshot()
	return View{
		State:     s.controller.State(),
		Rows:      s.controller.Rows(),
		PageIndex: snap.PageIndex,
		PageCount: s.controller.PageCount(),
		Sort:      snap.Sort,
		Query:     s.controller.Query(),
		Err:       s.controller.LastError(),
	}
}

// Wait blocks until all outstanding requests have settled.
func (s *Session) Wait() {
	s.controller.Wait()
}

func (s *Session) Close() {
	s.controller.Close()
	s.log.Info("session closed", nil)
}

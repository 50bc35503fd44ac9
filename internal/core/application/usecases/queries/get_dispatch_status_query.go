package queries

import (
	"context"
	"errors"
	"slices"

	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetDispatchStatusQueryIsNotConstructed = errors.New(
		"GetDispatchStatusQuery must be created via NewGetDispatchStatusQuery constructor",
	)
)

// GetDispatchStatusQuery returns a diagnostic view of the coordinator.
type GetDispatchStatusQuery struct {
	guard guard.ConstructorGuard
}

// NewGetDispatchStatusQuery creates a dispatch status query.
func NewGetDispatchStatusQuery() GetDispatchStatusQuery {
	return GetDispatchStatusQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetDispatchStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetDispatchStatusQueryIsNotConstructed)
}

// GetDispatchStatusQueryResponse lists order ids sorted, so that responses are comparable.
type GetDispatchStatusQueryResponse struct {
	Pending  []string
	Locked   []string
	Cooldown []string
	Timers   int
	Cursor   uint64
}

// StatusReader is implemented by the dispatch coordinator.
type StatusReader interface {
	Snapshot() dispatch.Snapshot
}

// GetDispatchStatusQueryHandler reads the coordinator snapshot.
type GetDispatchStatusQueryHandler struct {
	reader StatusReader
}

// NewGetDispatchStatusQueryHandler creates a handler over the given reader.
func NewGetDispatchStatusQueryHandler(reader StatusReader) GetDispatchStatusQueryHandler {
	return GetDispatchStatusQueryHandler{reader: reader}
}

// Handle returns the current snapshot.
func (h GetDispatchStatusQueryHandler) Handle(
	_ context.Context,
	query GetDispatchStatusQuery,
) (GetDispatchStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetDispatchStatusQueryResponse{}, err
	}

	snap := h.reader.Snapshot()
	return GetDispatchStatusQueryResponse{
		Pending:  sorted(snap.Pending),
		Locked:   sorted(snap.Locked),
		Cooldown: sorted(snap.Cooldown),
		Timers:   snap.Timers,
		Cursor:   snap.Cursor,
	}, nil
}

func sorted(ids []string) []string {
	out := slices.Clone(ids)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}

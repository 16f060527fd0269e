package abac

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a target or parent entity does not exist.
// Absence short-circuits the request before any permission check runs.
var ErrNotFound = errors.New("abac: resource not found")

// Store fetches a single entity by its public id, already normalized into
// an ownership view. Implementations return ErrNotFound (wrapped or not)
// when the id matches nothing.
type Store interface {
	FindInstance(ctx context.Context, id string) (*ResourceInstance, error)
}

// Resolver locates the entity an inbound action targets and hands the
// evaluator a predicate-ready instance.
type Resolver struct {
	stores map[Resource]Store
}

// NewResolver builds a resolver over per-resource stores.
func NewResolver(stores map[Resource]Store) *Resolver {
	copied := make(map[Resource]Store, len(stores))
	for name, store := range stores {
		if store == nil {
			continue
		}
		copied[name] = store
	}
	return &Resolver{stores: copied}
}

// Target carries the identifiers a request exposes for resolution.
type Target struct {
	// ID is the direct target id, usually a path parameter.
	ID string
	// ParentProjectID is the owning project id found in a creation
	// payload; create-under-parent is evaluated against parent ownership.
	ParentProjectID string
}

// Resolve produces the resource instance for a permission check, or nil
// when the action has no single target.
//
// Precedence: a direct id wins; otherwise a parent project id resolves the
// parent; otherwise a synthetic instance is built from the principal's own
// identity so ownership predicates on list-style endpoints can hold
// without fetching every row.
func (r *Resolver) Resolve(ctx context.Context, p Principal, resource Resource, target Target) (*ResourceInstance, error) {
	if target.ID != "" {
		store, ok := r.stores[resource]
		if !ok {
			return nil, ErrNotFound
		}
		return r.fetch(ctx, store, target.ID)
	}

	if target.ParentProjectID != "" {
		store, ok := r.stores[ResourceProjects]
		if !ok {
			return nil, ErrNotFound
		}
		return r.fetch(ctx, store, target.ParentProjectID)
	}

	if p.ID != "" {
		return &ResourceInstance{ClientID: p.ID, ManagerID: p.ID, TeamMembers: []string{p.ID}}, nil
	}
	return nil, nil
}

func (r *Resolver) fetch(ctx context.Context, store Store, id string) (*ResourceInstance, error) {
	res, err := store.FindInstance(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		// Transient store failures surface as lookup failures, never as
		// an access decision.
		return nil, err
	}
	if res == nil {
		return nil, ErrNotFound
	}
	return res, nil
}

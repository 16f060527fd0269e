package abac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	instances map[string]*ResourceInstance
	err       error
	calls     int
}

func (s *fakeStore) FindInstance(ctx context.Context, id string) (*ResourceInstance, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res, ok := s.instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

func TestResolveDirectTarget(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{
		"PROJ-1": {ID: "PROJ-1", ManagerID: "pm1"},
	}}
	resolver := NewResolver(map[Resource]Store{ResourceProjects: projects})

	res, err := resolver.Resolve(context.Background(), Principal{ID: "pm1"}, ResourceProjects, Target{ID: "PROJ-1"})
	require.NoError(t, err)
	require.Equal(t, "pm1", res.ManagerID)

	_, err = resolver.Resolve(context.Background(), Principal{ID: "pm1"}, ResourceProjects, Target{ID: "PROJ-404"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveUnknownResourceIsNotFound(t *testing.T) {
	resolver := NewResolver(map[Resource]Store{})
	_, err := resolver.Resolve(context.Background(), Principal{ID: "u1"}, Resource("invoices"), Target{ID: "X-1"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveParentProject(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{
		"PROJ-7": {ID: "PROJ-7", ManagerID: "pm1"},
	}}
	tasks := &fakeStore{instances: map[string]*ResourceInstance{}}
	resolver := NewResolver(map[Resource]Store{
		ResourceProjects: projects,
		ResourceTasks:    tasks,
	})

	// Creating a task under a project resolves the parent, not the task.
	res, err := resolver.Resolve(context.Background(), Principal{ID: "pm1"}, ResourceTasks, Target{ParentProjectID: "PROJ-7"})
	require.NoError(t, err)
	require.Equal(t, "PROJ-7", res.ID)
	require.Zero(t, tasks.calls)
}

func TestResolveSyntheticInstance(t *testing.T) {
	resolver := NewResolver(map[Resource]Store{})

	res, err := resolver.Resolve(context.Background(), Principal{ID: "c1"}, ResourceSchedules, Target{})
	require.NoError(t, err)
	require.Equal(t, "c1", res.ClientID)
	require.Equal(t, "c1", res.ManagerID)
	require.Equal(t, []string{"c1"}, res.TeamMembers)

	none, err := resolver.Resolve(context.Background(), Principal{}, ResourceSchedules, Target{})
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestResolveStoreFailureIsNotADecision(t *testing.T) {
	boom := errors.New("connection reset")
	projects := &fakeStore{err: boom}
	resolver := NewResolver(map[Resource]Store{ResourceProjects: projects})

	_, err := resolver.Resolve(context.Background(), Principal{ID: "pm1"}, ResourceProjects, Target{ID: "PROJ-1"})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNormalizeID(t *testing.T) {
	require.Equal(t, "", NormalizeID(nil))
	require.Equal(t, "PROJ-1", NormalizeID(" PROJ-1 "))
	require.Equal(t, "42", NormalizeID(42))
	require.Equal(t, []string{"x"}, CompactIDs([]string{"", "x", " "}))
}

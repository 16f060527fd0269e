package abac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateFailsClosedOnUnknownLookups(t *testing.T) {
	table := DefaultPolicies()

	unknownRole := Principal{ID: "u1", Role: Role("contractor")}
	require.False(t, table.Evaluate(unknownRole, ResourceProjects, ActionView, &ResourceInstance{ClientID: "u1"}))

	client := Principal{ID: "u1", Role: RoleClient}
	require.False(t, table.Evaluate(client, Resource("invoices"), ActionView, &ResourceInstance{ClientID: "u1"}))
	require.False(t, table.Evaluate(client, ResourceProjects, Action("archive"), &ResourceInstance{ClientID: "u1"}))

	// Explicitly absent actions deny too: clients may not delete projects.
	require.False(t, table.Evaluate(client, ResourceProjects, ActionDelete, &ResourceInstance{ClientID: "u1"}))
}

func TestEvaluateAdminAlwaysAllowed(t *testing.T) {
	table := DefaultPolicies()
	admin := Principal{ID: "boss", Role: RoleAdmin}

	resources := []Resource{
		ResourceProjects, ResourceTasks, ResourceSchedules, ResourceUsers,
		ResourceQuizQuestions, ResourceMaterials, ResourceCalculatorSettings,
		ResourceServices, ResourcePortfolios, ResourceTimeLogs, ResourceExpenses,
	}
	actions := []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete, ActionApprove}

	for _, resource := range resources {
		for _, action := range actions {
			require.True(t, table.Evaluate(admin, resource, action, nil),
				"admin %s on %s with no instance", action, resource)
			require.True(t, table.Evaluate(admin, resource, action, &ResourceInstance{ManagerID: "someone-else"}),
				"admin %s on %s with foreign instance", action, resource)
		}
	}
}

func TestEvaluateManagerOwnership(t *testing.T) {
	table := DefaultPolicies()
	pm := Principal{ID: "pm1", Role: RoleProjectManager}

	require.True(t, table.Evaluate(pm, ResourceProjects, ActionView, &ResourceInstance{ManagerID: "pm1"}))
	require.False(t, table.Evaluate(pm, ResourceProjects, ActionView, &ResourceInstance{ManagerID: "other"}))
	require.False(t, table.Evaluate(pm, ResourceProjects, ActionView, nil))
	require.False(t, table.Evaluate(pm, ResourceProjects, ActionDelete, &ResourceInstance{ManagerID: "pm1"}))
}

func TestEvaluateManagerBudgetCap(t *testing.T) {
	table := DefaultPolicies()
	pm := Principal{ID: "pm1", Role: RoleProjectManager}

	owned := func(budget float64) *ResourceInstance {
		return &ResourceInstance{ManagerID: "pm1", BudgetTotal: budget}
	}

	require.True(t, table.Evaluate(pm, ResourceProjects, ActionUpdate, owned(999_999)))
	// Exactly at the cap is not editable; the comparison is strict.
	require.False(t, table.Evaluate(pm, ResourceProjects, ActionUpdate, owned(1_000_000)))
	require.False(t, table.Evaluate(pm, ResourceProjects, ActionUpdate, &ResourceInstance{ManagerID: "other", BudgetTotal: 10}))
	// Missing budget reads as zero and stays under the cap.
	require.True(t, table.Evaluate(pm, ResourceProjects, ActionUpdate, owned(0)))
}

func TestEvaluateTeamMemberTaskUpdate(t *testing.T) {
	table := DefaultPolicies()
	member := Principal{ID: "tm1", Role: RoleTeamMember}

	require.False(t, table.Evaluate(member, ResourceTasks, ActionUpdate,
		&ResourceInstance{Status: "DONE", AssignedTo: []string{"tm1"}}))
	require.True(t, table.Evaluate(member, ResourceTasks, ActionUpdate,
		&ResourceInstance{Status: "TODO", AssignedTo: []string{"tm1"}}))
	require.False(t, table.Evaluate(member, ResourceTasks, ActionUpdate,
		&ResourceInstance{Status: "TODO", AssignedTo: []string{"tm2"}}))
	require.True(t, table.Evaluate(member, ResourceTasks, ActionView, nil))
	require.False(t, table.Evaluate(member, ResourceTasks, ActionApprove,
		&ResourceInstance{Status: "TODO", AssignedTo: []string{"tm1"}}))
}

func TestEvaluateTeamMemberSubmissionUpdate(t *testing.T) {
	table := DefaultPolicies()
	member := Principal{ID: "tm1", Role: RoleTeamMember}

	// Time logs and expenses share one approval model: staff may edit
	// submission fields on both, with the own-row check in the services.
	own := &ResourceInstance{UserID: "tm1"}
	require.True(t, table.Evaluate(member, ResourceTimeLogs, ActionUpdate, own))
	require.True(t, table.Evaluate(member, ResourceExpenses, ActionUpdate, own))
	require.False(t, table.Evaluate(member, ResourceExpenses, ActionApprove, own))
	require.False(t, table.Evaluate(member, ResourceExpenses, ActionDelete, own))
}

func TestEvaluateClientOwnership(t *testing.T) {
	table := DefaultPolicies()
	client := Principal{ID: "c1", Role: RoleClient}

	require.True(t, table.Evaluate(client, ResourceProjects, ActionView, &ResourceInstance{ClientID: "c1"}))
	require.False(t, table.Evaluate(client, ResourceProjects, ActionView, &ResourceInstance{ClientID: "other"}))
	require.True(t, table.Evaluate(client, ResourceProjects, ActionCreate, nil))
	require.True(t, table.Evaluate(client, ResourceProjects, ActionUpdate, &ResourceInstance{ClientID: "c1"}))
	require.False(t, table.Evaluate(client, ResourceProjects, ActionUpdate, &ResourceInstance{ClientID: "other"}))
	require.True(t, table.Evaluate(client, ResourceSchedules, ActionUpdate, &ResourceInstance{ClientID: "c1"}))
	require.False(t, table.Evaluate(client, ResourceTasks, ActionView, &ResourceInstance{}))
}

func TestEvaluateUsersSelfServiceOnly(t *testing.T) {
	table := DefaultPolicies()

	for _, role := range []Role{RoleProjectManager, RoleTeamMember, RoleClient} {
		p := Principal{ID: "u1", Role: role}
		require.True(t, table.Evaluate(p, ResourceUsers, ActionView, &ResourceInstance{ID: "u1"}), "role %s", role)
		require.False(t, table.Evaluate(p, ResourceUsers, ActionView, &ResourceInstance{ID: "u2"}), "role %s", role)
		require.True(t, table.Evaluate(p, ResourceUsers, ActionUpdate, &ResourceInstance{ID: "u1"}), "role %s", role)
		require.False(t, table.Evaluate(p, ResourceUsers, ActionCreate, &ResourceInstance{ID: "u1"}), "role %s", role)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	table := DefaultPolicies()
	pm := Principal{ID: "pm1", Role: RoleProjectManager}
	res := &ResourceInstance{ManagerID: "pm1", BudgetTotal: 500}

	first := table.Evaluate(pm, ResourceProjects, ActionUpdate, res)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, table.Evaluate(pm, ResourceProjects, ActionUpdate, res))
	}
}

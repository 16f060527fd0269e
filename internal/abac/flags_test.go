package abac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectFlagsManagerScenario(t *testing.T) {
	rules := DefaultProjectRules()
	pm := Principal{ID: "pm1", Role: RoleProjectManager}

	owned := &ResourceInstance{ID: "PROJ-1", ManagerID: "pm1", BudgetTotal: 900_000}
	flags := ProjectFlags(rules, pm, owned)
	require.True(t, flags.CanEdit)
	require.False(t, flags.CanDelete)
	require.True(t, flags.CanViewFinancials)
}

func TestProjectFlagsBudgetBoundary(t *testing.T) {
	rules := DefaultProjectRules()
	pm := Principal{ID: "pm1", Role: RoleProjectManager}

	below := ProjectFlags(rules, pm, &ResourceInstance{ManagerID: "pm1", BudgetTotal: 999_999})
	require.True(t, below.CanEdit)

	atCap := ProjectFlags(rules, pm, &ResourceInstance{ManagerID: "pm1", BudgetTotal: 1_000_000})
	require.False(t, atCap.CanEdit)
	// The cap limits edits, not financial visibility.
	require.True(t, atCap.CanViewFinancials)

	foreign := ProjectFlags(rules, pm, &ResourceInstance{ManagerID: "other", BudgetTotal: 1})
	require.False(t, foreign.CanEdit)
	require.False(t, foreign.CanViewFinancials)

	missingBudget := ProjectFlags(rules, pm, &ResourceInstance{ManagerID: "pm1"})
	require.True(t, missingBudget.CanEdit)
}

func TestProjectFlagsAdminAndClient(t *testing.T) {
	rules := DefaultProjectRules()
	res := &ResourceInstance{ManagerID: "pm1", BudgetTotal: 5_000_000}

	admin := ProjectFlags(rules, Principal{ID: "a1", Role: RoleAdmin}, res)
	require.True(t, admin.CanEdit)
	require.True(t, admin.CanDelete)
	require.True(t, admin.CanViewFinancials)

	client := ProjectFlags(rules, Principal{ID: "c1", Role: RoleClient}, res)
	require.False(t, client.CanEdit)
	require.False(t, client.CanDelete)
	require.False(t, client.CanViewFinancials)
}

func TestRowFilterFor(t *testing.T) {
	require.Equal(t, RowFilter{ManagerID: "pm1"}, RowFilterFor(RoleProjectManager, "pm1"))
	require.Equal(t, RowFilter{ClientID: "c1"}, RowFilterFor(RoleClient, "c1"))
	require.True(t, RowFilterFor(RoleAdmin, "a1").Unrestricted())
	require.True(t, RowFilterFor(RoleTeamMember, "tm1").Unrestricted())

	require.Equal(t, RowFilter{UserID: "tm1"}, SubmitterRowFilterFor(RoleTeamMember, "tm1"))
	require.Equal(t, RowFilter{ManagerID: "pm1"}, SubmitterRowFilterFor(RoleProjectManager, "pm1"))
	require.True(t, SubmitterRowFilterFor(RoleAdmin, "a1").Unrestricted())
}

func TestRedactColumns(t *testing.T) {
	row := map[string]any{
		"id":           "PROJ-1",
		"name":         "Loft renovation",
		"financials":   map[string]any{"budget_total": 100.0},
		"team_members": []string{"tm1"},
	}

	redacted := RedactColumns(RoleClient, row)
	require.NotContains(t, redacted, "financials")
	require.NotContains(t, redacted, "team_members")
	require.Equal(t, "PROJ-1", redacted["id"])

	kept := RedactColumns(RoleProjectManager, map[string]any{"financials": 1})
	require.Contains(t, kept, "financials")

	require.Nil(t, RedactColumns(RoleClient, nil))
}

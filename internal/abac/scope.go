package abac

// RowFilter restricts which rows a listing or detail query may return.
// The zero value places no restriction (full scan). Repositories translate
// non-empty fields into WHERE clauses; the filter itself stays
// storage-agnostic.
//
// Row scoping is independent of the endpoint gate: the gate decides
// whether the endpoint runs at all, the filter decides which rows an
// allowed endpoint yields.
type RowFilter struct {
	ManagerID string
	ClientID  string
	UserID    string
}

// Unrestricted reports whether the filter places no constraint.
func (f RowFilter) Unrestricted() bool {
	return f.ManagerID == "" && f.ClientID == "" && f.UserID == ""
}

// RowFilterFor builds the default scope for manager/client-owned
// collections (projects, schedules): managers see rows they manage,
// clients see rows they commissioned, everyone else scans freely subject
// to the endpoint gate.
func RowFilterFor(role Role, userID string) RowFilter {
	switch role {
	case RoleProjectManager:
		return RowFilter{ManagerID: userID}
	case RoleClient:
		return RowFilter{ClientID: userID}
	default:
		return RowFilter{}
	}
}

// SubmitterRowFilterFor builds the scope for submission-owned collections
// (time logs, expenses): staff see only their own rows, managers see rows
// under projects they manage.
func SubmitterRowFilterFor(role Role, userID string) RowFilter {
	switch role {
	case RoleTeamMember:
		return RowFilter{UserID: userID}
	case RoleProjectManager:
		return RowFilter{ManagerID: userID}
	default:
		return RowFilter{}
	}
}

// HideFinancials reports whether project financials and team membership
// must be stripped from rows returned to this role. Redaction applies to
// detail reads as much as lists; clients get the same response shape as
// other roles minus the redacted fields.
func HideFinancials(role Role) bool {
	return role == RoleClient
}

// RedactColumns removes sensitive project fields from a generic row for
// the given role. The row is modified in place and returned.
func RedactColumns(role Role, row map[string]any) map[string]any {
	if row == nil || !HideFinancials(role) {
		return row
	}
	delete(row, "financials")
	delete(row, "team_members")
	return row
}

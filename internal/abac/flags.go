package abac

// Flags are the derived capability booleans attached to every project row
// a read returns. They are recomputed per row per requester and never
// persisted or cached.
type Flags struct {
	CanEdit           bool `json:"can_edit"`
	CanDelete         bool `json:"can_delete"`
	CanViewFinancials bool `json:"can_view_financials"`
}

// ProjectFlags computes the capability flags for one project instance.
//
// Edit honors the budget cap (strict less-than: a project exactly at the
// cap is not editable). Financial visibility honors ownership only; the
// cap limits edits, not reads. A project without a budget counts as zero,
// which is below any positive cap.
func ProjectFlags(rules ProjectAccessRules, p Principal, res *ResourceInstance) Flags {
	return Flags{
		CanEdit:           rules.Edit[p.Role].Holds(p, res),
		CanDelete:         rules.Delete[p.Role].Holds(p, res),
		CanViewFinancials: rules.ViewFinancials[p.Role].Holds(p, res),
	}
}

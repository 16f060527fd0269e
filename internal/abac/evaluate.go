package abac

// Evaluate answers whether the principal may perform the action on the
// named resource, optionally against a resolved instance.
//
// Every missing lookup level degrades to deny rather than erroring: a
// misconfigured or incomplete table must never expose data. Conditional
// permissions deny when no instance is supplied; a list-style action that
// reaches a predicate without a target is ambiguous and ambiguity denies.
func (t PolicyTable) Evaluate(p Principal, resource Resource, action Action, res *ResourceInstance) bool {
	rolePermissions, ok := t[p.Role]
	if !ok {
		return false
	}
	resourcePermissions, ok := rolePermissions[resource]
	if !ok {
		return false
	}
	permission, ok := resourcePermissions[action]
	if !ok {
		return false
	}
	switch permission.kind {
	case permAllow:
		return true
	case permConditional:
		if res == nil {
			return false
		}
		return permission.pred(p, res)
	default:
		return false
	}
}

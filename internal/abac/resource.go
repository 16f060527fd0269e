package abac

import (
	"fmt"
	"strings"
)

// ResourceInstance is the normalized ownership view of a domain entity,
// built fresh per request for predicate evaluation and discarded after.
// Every id-bearing field is a plain string; database-native id types must
// never reach a predicate, or identity comparison silently fails.
type ResourceInstance struct {
	ID          string
	ManagerID   string
	ClientID    string
	UserID      string
	AssignedTo  []string
	TeamMembers []string
	Status      string
	BudgetTotal float64
}

// NormalizeID renders any id-ish value as a plain trimmed string before
// it reaches a resolver target or a predicate. Nil yields "".
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case fmt.Stringer:
		return id.String()
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

// CompactIDs drops empty entries from an already-string id list.
func CompactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

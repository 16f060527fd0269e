package abac

// Resource names every entity collection governed by the policy table.
type Resource string

const (
	ResourceProjects           Resource = "projects"
	ResourceTasks              Resource = "tasks"
	ResourceSchedules          Resource = "schedules"
	ResourceUsers              Resource = "users"
	ResourceQuizQuestions      Resource = "quiz_questions"
	ResourceMaterials          Resource = "materials"
	ResourceCalculatorSettings Resource = "calculator_settings"
	ResourceServices           Resource = "services"
	ResourcePortfolios         Resource = "portfolios"
	ResourceTimeLogs           Resource = "time_logs"
	ResourceExpenses           Resource = "expenses"
)

// Action names every operation the policy table distinguishes.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

// TaskStatusDone marks an immutable task for the team-member update rule.
const TaskStatusDone = "DONE"

// Predicate decides a permission from live resource data.
type Predicate func(p Principal, res *ResourceInstance) bool

type permissionKind int

const (
	permDeny permissionKind = iota
	permAllow
	permConditional
)

// Permission is a tagged variant: Allow, Deny, or Conditional(predicate).
// The zero value denies.
type Permission struct {
	kind permissionKind
	pred Predicate
}

// Allow grants unconditionally.
func Allow() Permission { return Permission{kind: permAllow} }

// Deny refuses unconditionally.
func Deny() Permission { return Permission{kind: permDeny} }

// Conditional grants when the predicate holds against the resolved
// resource instance. A nil instance always denies.
func Conditional(pred Predicate) Permission {
	if pred == nil {
		return Deny()
	}
	return Permission{kind: permConditional, pred: pred}
}

// PolicyTable maps (role, resource, action) to a permission. It is built
// once at process start and never mutated afterwards; request-handling
// code only reads it.
type PolicyTable map[Role]map[Resource]map[Action]Permission

// OwnershipRule expresses the project access rules shared by the policy
// table and the per-row permission flags. The zero value denies.
type OwnershipRule struct {
	// Always grants regardless of ownership or budget.
	Always bool
	// OwnerOnly requires manager ownership of the project.
	OwnerOnly bool
	// MaxBudget caps editable project budgets (strict less-than).
	// Zero means no cap.
	MaxBudget float64
	// granted distinguishes a configured rule from a map miss.
	granted bool
}

func allowRule() OwnershipRule             { return OwnershipRule{Always: true, granted: true} }
func ownerRule(maxBudget float64) OwnershipRule {
	return OwnershipRule{OwnerOnly: true, MaxBudget: maxBudget, granted: true}
}

// Holds evaluates the rule for a manager-owned check against a project
// instance. Missing budget reads as zero, which is below any positive cap.
func (r OwnershipRule) Holds(p Principal, res *ResourceInstance) bool {
	if !r.granted {
		return false
	}
	if r.Always {
		return true
	}
	if res == nil {
		return false
	}
	if r.OwnerOnly && res.ManagerID != p.ID {
		return false
	}
	if r.MaxBudget > 0 && res.BudgetTotal >= r.MaxBudget {
		return false
	}
	return true
}

// ProjectAccessRules groups the edit/delete/financial-visibility rules
// applied on top of the endpoint-level policy table.
type ProjectAccessRules struct {
	Edit           map[Role]OwnershipRule
	Delete         map[Role]OwnershipRule
	ViewFinancials map[Role]OwnershipRule
}

// ManagerBudgetCap is the budget ceiling for project-manager edits.
const ManagerBudgetCap = 1_000_000

// DefaultProjectRules returns the fixed project access rules.
func DefaultProjectRules() ProjectAccessRules {
	return ProjectAccessRules{
		Edit: map[Role]OwnershipRule{
			RoleAdmin:          allowRule(),
			RoleProjectManager: ownerRule(ManagerBudgetCap),
		},
		Delete: map[Role]OwnershipRule{
			RoleAdmin: allowRule(),
		},
		ViewFinancials: map[Role]OwnershipRule{
			RoleAdmin:          allowRule(),
			RoleProjectManager: ownerRule(0),
		},
	}
}

// DefaultPolicies builds the process-wide policy table.
//
// Admin entries are static allows: admin-only endpoints never need a
// resolved target. Everything not listed here denies.
func DefaultPolicies() PolicyTable {
	rules := DefaultProjectRules()

	managesProject := func(p Principal, res *ResourceInstance) bool {
		return res.ManagerID == p.ID
	}
	managesSchedule := managesProject
	ownsAsClient := func(p Principal, res *ResourceInstance) bool {
		return res.ClientID == p.ID
	}
	isSelf := func(p Principal, res *ResourceInstance) bool {
		return res.ID == p.ID
	}
	onProjectTeam := func(p Principal, res *ResourceInstance) bool {
		return containsID(res.TeamMembers, p.ID)
	}
	mayEditProject := func(p Principal, res *ResourceInstance) bool {
		return rules.Edit[p.Role].Holds(p, res)
	}
	mayWorkTask := func(p Principal, res *ResourceInstance) bool {
		return res.Status != TaskStatusDone && containsID(res.AssignedTo, p.ID)
	}

	selfService := map[Action]Permission{
		ActionView:   Conditional(isSelf),
		ActionCreate: Deny(),
		ActionUpdate: Conditional(isSelf),
		ActionDelete: Conditional(isSelf),
	}
	readOnly := map[Action]Permission{
		ActionView: Allow(),
	}

	return PolicyTable{
		RoleAdmin: {
			ResourceUsers:              allowAll(),
			ResourceProjects:           allowAll(),
			ResourceTasks:              allowAll(),
			ResourceSchedules:          allowAll(),
			ResourceQuizQuestions:      allowAll(),
			ResourceMaterials:          allowAll(),
			ResourceCalculatorSettings: allowAll(),
			ResourceServices:           allowAll(),
			ResourcePortfolios:         allowAll(),
			ResourceTimeLogs:           allowAll(),
			ResourceExpenses:           allowAll(),
		},
		RoleProjectManager: {
			ResourceProjects: {
				ActionView:   Conditional(managesProject),
				ActionCreate: Allow(),
				ActionUpdate: Conditional(mayEditProject),
			},
			ResourceTasks: {
				// Task ownership is enforced in the task service; the
				// approve flow re-checks the parent project's manager.
				ActionView:    Allow(),
				ActionCreate:  Allow(),
				ActionApprove: Allow(),
			},
			ResourceSchedules: {
				ActionView:   Conditional(managesSchedule),
				ActionCreate: Allow(),
				ActionUpdate: Conditional(managesSchedule),
			},
			ResourceTimeLogs: {
				ActionView:    Allow(),
				ActionCreate:  Allow(),
				ActionUpdate:  Allow(),
				ActionApprove: Allow(),
			},
			ResourceExpenses: {
				ActionView:    Allow(),
				ActionCreate:  Allow(),
				ActionUpdate:  Allow(),
				ActionApprove: Allow(),
			},
			ResourceQuizQuestions:      readOnly,
			ResourceMaterials:          readOnly,
			ResourceCalculatorSettings: readOnly,
			ResourcePortfolios:         readOnly,
			ResourceUsers:              selfService,
		},
		RoleTeamMember: {
			ResourceProjects: {
				ActionView: Conditional(onProjectTeam),
			},
			ResourceTasks: {
				ActionView:   Allow(),
				ActionUpdate: Conditional(mayWorkTask),
			},
			ResourceTimeLogs: {
				ActionView:   Allow(),
				ActionCreate: Allow(),
				ActionUpdate: Allow(),
			},
			ResourceExpenses: {
				ActionView:   Allow(),
				ActionCreate: Allow(),
				ActionUpdate: Allow(),
			},
			ResourceQuizQuestions: readOnly,
			ResourceMaterials:     readOnly,
			ResourcePortfolios:    readOnly,
			ResourceUsers:         selfService,
		},
		RoleClient: {
			ResourceProjects: {
				ActionView:   Conditional(ownsAsClient),
				ActionCreate: Allow(),
				ActionUpdate: Conditional(ownsAsClient),
			},
			ResourceSchedules: {
				ActionView:   Conditional(ownsAsClient),
				ActionCreate: Allow(),
				ActionUpdate: Conditional(ownsAsClient),
			},
			ResourceQuizQuestions:      readOnly,
			ResourceMaterials:          readOnly,
			ResourceCalculatorSettings: readOnly,
			ResourcePortfolios:         readOnly,
			ResourceUsers:              selfService,
		},
	}
}

func allowAll() map[Action]Permission {
	return map[Action]Permission{
		ActionView:    Allow(),
		ActionCreate:  Allow(),
		ActionUpdate:  Allow(),
		ActionDelete:  Allow(),
		ActionApprove: Allow(),
	}
}

// Package permission evaluates the role/resource/action matrix of a session.
//
// A Set is built once per session from the owner's role and the
// {resource: [actions]} map granted by the lending API. ADMIN owners pass
// every check regardless of the map.
package permission

import (
	"sort"

	"motodash/internal/model"
)

// Resource is the entity axis of the matrix.
type Resource string

// Action is the operation axis of the matrix.
type Action string

const (
	Owners       Resource = "owners"
	Users        Resource = "users"
	Vehicles     Resource = "vehicles"
	Loans        Resource = "loans"
	Installments Resource = "installments"
	Closings     Resource = "closings"
	Expenses     Resource = "expenses"
	Providers    Resource = "providers"
	CashFlow     Resource = "cashflow"
	Reports      Resource = "reports"
	WhatsApp     Resource = "whatsapp"
	Permissions  Resource = "permissions"
	Dashboard    Resource = "dashboard"
)

const (
	View   Action = "view"
	Create Action = "create"
	Edit   Action = "edit"
	Delete Action = "delete"
)

// Resources lists every resource known to the dashboard.
var Resources = []Resource{
	Owners, Users, Vehicles, Loans, Installments, Closings, Expenses,
	Providers, CashFlow, Reports, WhatsApp, Permissions, Dashboard,
}

// Actions lists every action known to the dashboard.
var Actions = []Action{View, Create, Edit, Delete}

// Permission is one cell of the matrix.
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// P is shorthand for building a Permission.
func P(r Resource, a Action) Permission {
	return Permission{Resource: r, Action: a}
}

func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

// Set is an immutable, evaluated permission matrix.
type Set struct {
	role   string
	grants map[Resource]map[Action]struct{}
}

// NewSet builds a Set for role from the granted map.
func NewSet(role string, granted model.PermissionMap) *Set {
	s := &Set{
		role:   role,
		grants: make(map[Resource]map[Action]struct{}, len(granted)),
	}
	for res, actions := range granted {
		acts := make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			acts[Action(a)] = struct{}{}
		}
		s.grants[Resource(res)] = acts
	}
	return s
}

// Role returns the role the Set was built for.
func (s *Set) Role() string {
	if s == nil {
		return ""
	}
	return s.role
}

// IsAdmin reports whether the Set grants unconditional access.
func (s *Set) IsAdmin() bool {
	return s != nil && s.role == model.RoleAdmin
}

// Has reports whether action on resource is granted.
func (s *Set) Has(r Resource, a Action) bool {
	if s == nil {
		return false
	}
	if s.IsAdmin() {
		return true
	}
	_, ok := s.grants[r][a]
	return ok
}

// HasAny reports whether at least one of perms is granted.
// It is false for an empty list unless the Set is ADMIN.
func (s *Set) HasAny(perms ...Permission) bool {
	if s.IsAdmin() {
		return true
	}
	for _, p := range perms {
		if s.Has(p.Resource, p.Action) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of perms is granted.
// It is true for an empty list.
func (s *Set) HasAll(perms ...Permission) bool {
	if s.IsAdmin() {
		return true
	}
	if s == nil && len(perms) > 0 {
		return false
	}
	for _, p := range perms {
		if !s.Has(p.Resource, p.Action) {
			return false
		}
	}
	return true
}

// Granted returns the effective matrix with sorted actions. For ADMIN it is
// the full matrix.
func (s *Set) Granted() model.PermissionMap {
	out := make(model.PermissionMap)
	if s == nil {
		return out
	}
	if s.IsAdmin() {
		for _, r := range Resources {
			acts := make([]string, 0, len(Actions))
			for _, a := range Actions {
				acts = append(acts, string(a))
			}
			out[string(r)] = acts
		}
		return out
	}
	for r, acts := range s.grants {
		list := make([]string, 0, len(acts))
		for a := range acts {
			list = append(list, string(a))
		}
		sort.Strings(list)
		out[string(r)] = list
	}
	return out
}

// IsKnown reports whether r and a are part of the matrix.
func IsKnown(r Resource, a Action) bool {
	rOK, aOK := false, false
	for _, x := range Resources {
		if x == r {
			rOK = true
			break
		}
	}
	for _, x := range Actions {
		if x == a {
			aOK = true
			break
		}
	}
	return rOK && aOK
}

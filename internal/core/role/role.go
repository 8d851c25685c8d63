package role

import "strings"

// Role is the single mandatory role attached to every user account.
type Role string

const (
	Admin       Role = "admin"
	Supervisor  Role = "supervisor"
	Electrician Role = "electrician"
	Storekeeper Role = "storekeeper"
)

// Default is assigned when an account is created without an explicit role.
const Default = Electrician

var all = []Role{Admin, Supervisor, Electrician, Storekeeper}

func All() []Role {
	out := make([]Role, len(all))
	copy(out, all)
	return out
}

func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	for _, known := range all {
		if r == known {
			return true
		}
	}
	return false
}

// IsManagement reports whether the role reviews other people's records
// instead of producing its own attendance and material requests.
func (r Role) IsManagement() bool {
	return r == Admin || r == Supervisor
}

// CanSupervise reports whether a user with this role may be set as another
// user's supervisor.
func (r Role) CanSupervise() bool {
	return r == Admin || r == Supervisor
}

// Label is the human readable name used in messages.
func (r Role) Label() string {
	switch r {
	case Admin:
		return "Admin"
	case Supervisor:
		return "Supervisor"
	case Electrician:
		return "Electrician"
	case Storekeeper:
		return "Storekeeper"
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}

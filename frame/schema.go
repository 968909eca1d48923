package frame

// Role is the declarative type of a column. Normalisation, display formatting and export
// all dispatch on it.
type Role int

const (
	RoleText Role = iota
	RoleNumeric
	RolePercent
	RoleDate
	RoleMixedDate
	// RoleStat is a number that is not additive, such as a year, a rank or a mean. It
	// formats like RoleNumeric but is never totalled.
	RoleStat
)

func (r Role) String() string {
	switch r {
	case RoleNumeric:
		return "numeric"
	case RolePercent:
		return "percent"
	case RoleDate:
		return "date"
	case RoleMixedDate:
		return "mixed-date"
	case RoleStat:
		return "stat"
	default:
		return "text"
	}
}

// Numeric reports whether values of the role are numbers (percent and stat included).
func (r Role) Numeric() bool { return r == RoleNumeric || r == RolePercent || r == RoleStat }

// Additive reports whether a column of the role can be meaningfully summed.
func (r Role) Additive() bool { return r == RoleNumeric }

// Temporal reports whether values of the role are dates or date-like text.
func (r Role) Temporal() bool { return r == RoleDate || r == RoleMixedDate }

// Schema maps column names to roles. Columns not listed are text.
type Schema map[string]Role

func (s Schema) Role(col string) Role {
	if role, ok := s[col]; ok {
		return role
	}
	return RoleText
}

// With returns a copy of s with the extra assignments applied.
func (s Schema) With(extra Schema) Schema {
	out := make(Schema, len(s)+len(extra))
	for col, role := range s {
		out[col] = role
	}
	for col, role := range extra {
		out[col] = role
	}
	return out
}

// Columns lists the columns of s holding role, in the order they appear in order.
func (s Schema) Columns(order []string, role Role) []string {
	var out []string
	for _, col := range order {
		if r, ok := s[col]; ok && r == role {
			out = append(out, col)
		}
	}
	return out
}

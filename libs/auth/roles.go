package auth

// Role is the closed set of account roles. Every endpoint decides access
// through Role.Can rather than comparing role strings inline.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// Capability names one thing an authenticated account may do.
type Capability string

const (
	CapTrade         Capability = "trade"
	CapViewPortfolio Capability = "view_portfolio"
	CapManageClass   Capability = "manage_class"
	CapAdjustCash    Capability = "adjust_cash"
	CapAdmin         Capability = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) Can(cap Capability) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleTeacher:
		// Teachers trade too, typically to demonstrate; the allowlist and
		// cooldown rules already exempt them in the order core.
		return cap == CapTrade || cap == CapManageClass || cap == CapAdjustCash || cap == CapViewPortfolio
	case RoleStudent:
		return cap == CapTrade || cap == CapViewPortfolio
	default:
		return false
	}
}

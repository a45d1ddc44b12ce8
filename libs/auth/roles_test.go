package auth

import "testing"

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleStudent, CapTrade, true},
		{RoleStudent, CapViewPortfolio, true},
		{RoleStudent, CapManageClass, false},
		{RoleStudent, CapAdjustCash, false},
		{RoleStudent, CapAdmin, false},

		// Teachers place orders when demonstrating a trade to the class.
		{RoleTeacher, CapTrade, true},
		{RoleTeacher, CapViewPortfolio, true},
		{RoleTeacher, CapManageClass, true},
		{RoleTeacher, CapAdjustCash, true},
		{RoleTeacher, CapAdmin, false},

		{RoleAdmin, CapTrade, true},
		{RoleAdmin, CapManageClass, true},
		{RoleAdmin, CapAdmin, true},

		{Role("GHOST"), CapTrade, false},
	}

	for _, tc := range cases {
		if got := tc.role.Can(tc.cap); got != tc.want {
			t.Errorf("%s.Can(%s) = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"STUDENT", "TEACHER", "ADMIN"} {
		if _, ok := ParseRole(s); !ok {
			t.Errorf("ParseRole(%q) rejected a valid role", s)
		}
	}
	for _, s := range []string{"", "student", "ROOT"} {
		if _, ok := ParseRole(s); ok {
			t.Errorf("ParseRole(%q) accepted an invalid role", s)
		}
	}
}

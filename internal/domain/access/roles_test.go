package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required []Role
		want     bool
	}{
		{name: "any role", role: RoleStudent, want: true},
		{name: "admin only rejects student", role: RoleStudent, required: []Role{RoleAdmin}, want: false},
		{name: "admin only accepts admin", role: RoleAdmin, required: []Role{RoleAdmin}, want: true},
		{name: "unknown role", role: Role("cashier"), want: false},
		{name: "either", role: RoleAdmin, required: []Role{RoleStudent, RoleAdmin}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.required...))
		})
	}
}

func TestCanViewStudentData(t *testing.T) {
	assert.True(t, CanViewStudentData(RoleAdmin, 1, 2))
	assert.True(t, CanViewStudentData(RoleStudent, 2, 2))
	assert.False(t, CanViewStudentData(RoleStudent, 1, 2))
	assert.False(t, CanViewStudentData(RoleStudent, 0, 0))
}

package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moddy-app/moddysystems/internal/domain"
)

func TestDefaultTableDecisions(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		name     string
		roles    []string
		category domain.TicketCategory
		want     bool
	}{
		{"support manages support", []string{"Support"}, domain.CategorySupport, true},
		{"support manages billing", []string{"Support"}, domain.CategoryPaymentsBilling, true},
		{"support cannot manage legal", []string{"Support"}, domain.CategoryLegalRequest, false},
		{"dev manages bug reports", []string{"Dev"}, domain.CategoryBugReport, true},
		{"dev cannot manage appeals", []string{"Dev"}, domain.CategorySanctionAppeal, false},
		{"moderator manages appeals", []string{"Moderator"}, domain.CategorySanctionAppeal, true},
		{"communication manages other", []string{"Communication"}, domain.CategoryOtherRequest, true},
		{"manager manages everything", []string{"Manager"}, domain.CategoryLegalRequest, true},
		{"supervisor manages everything", []string{"Supervisor_Support"}, domain.CategoryBugReport, true},
		{"no roles no access", nil, domain.CategorySupport, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CanManage(tt.roles, tt.category))
		})
	}
}

func TestCustomTableOverridesDefault(t *testing.T) {
	r := NewResolver(Table{
		domain.CategorySupport: {"Helpdesk"},
	})

	assert.True(t, r.CanManage([]string{"Helpdesk"}, domain.CategorySupport))
	assert.False(t, r.CanManage([]string{"Support"}, domain.CategorySupport))
	// Categories missing from a custom table stay closed to ordinary roles.
	assert.False(t, r.CanManage([]string{"Dev"}, domain.CategoryBugReport))
	// Elevation is not table-driven.
	assert.True(t, r.CanManage([]string{"Manager"}, domain.CategoryBugReport))
}

func TestElevated(t *testing.T) {
	assert.True(t, Elevated([]string{"Manager"}))
	assert.True(t, Elevated([]string{"Support", "Supervisor_Dev"}))
	assert.False(t, Elevated([]string{"Support", "Dev"}))
	assert.False(t, Elevated(nil))
}

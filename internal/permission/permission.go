// Package permission maps a staff member's role set and a ticket category to
// an allow/deny decision. The category table is configuration data, not
// logic: callers may supply their own.
package permission

import (
	"strings"

	"github.com/moddy-app/moddysystems/internal/domain"
)

// Table maps each ticket category to the role names allowed to manage it.
type Table map[domain.TicketCategory][]string

// DefaultTable returns the built-in category permissions.
func DefaultTable() Table {
	return Table{
		domain.CategorySupport:         {"Support"},
		domain.CategoryBugReport:       {"Dev"},
		domain.CategorySanctionAppeal:  {"Moderator"},
		domain.CategoryLegalRequest:    {"Manager"},
		domain.CategoryPaymentsBilling: {"Support"},
		domain.CategoryOtherRequest:    {"Support", "Communication", "Moderator", "Dev"},
	}
}

// Resolver answers ticket-management permission checks against a table.
type Resolver struct {
	table Table
}

// NewResolver builds a resolver. A nil table falls back to the default.
func NewResolver(table Table) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table}
}

// CanManage reports whether a staff member holding roles may manage tickets
// of the given category. Manager and any Supervisor_* role always may.
func (r *Resolver) CanManage(roles []string, category domain.TicketCategory) bool {
	if Elevated(roles) {
		return true
	}
	allowed, ok := r.table[category]
	if !ok {
		return false
	}
	for _, role := range roles {
		for _, a := range allowed {
			if role == a {
				return true
			}
		}
	}
	return false
}

// Elevated reports whether the role set carries Manager or any Supervisor_*
// role.
func Elevated(roles []string) bool {
	for _, role := range roles {
		if role == "Manager" || strings.HasPrefix(role, "Supervisor_") {
			return true
		}
	}
	return false
}

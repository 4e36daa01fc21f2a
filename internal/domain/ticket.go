package domain

import "time"

// TicketCategory enumerates the fixed support categories.
type TicketCategory string

const (
	CategorySupport         TicketCategory = "support"
	CategoryBugReport       TicketCategory = "bug_report"
	CategorySanctionAppeal  TicketCategory = "sanction_appeal"
	CategoryLegalRequest    TicketCategory = "legal_request"
	CategoryPaymentsBilling TicketCategory = "payments_billing"
	CategoryOtherRequest    TicketCategory = "other_request"
)

// Categories lists every valid ticket category.
func Categories() []TicketCategory {
	return []TicketCategory{
		CategorySupport,
		CategoryBugReport,
		CategorySanctionAppeal,
		CategoryLegalRequest,
		CategoryPaymentsBilling,
		CategoryOtherRequest,
	}
}

// Valid reports whether c is one of the fixed categories.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategorySupport, CategoryBugReport, CategorySanctionAppeal,
		CategoryLegalRequest, CategoryPaymentsBilling, CategoryOtherRequest:
		return true
	}
	return false
}

// Label returns the display name of the category.
func (c TicketCategory) Label() string {
	switch c {
	case CategorySupport:
		return "Support"
	case CategoryBugReport:
		return "Bug Report"
	case CategorySanctionAppeal:
		return "Sanction Appeal"
	case CategoryLegalRequest:
		return "Legal Request"
	case CategoryPaymentsBilling:
		return "Payments & Billing"
	case CategoryOtherRequest:
		return "Other Request"
	}
	return string(c)
}

// Ticket is one support thread plus its tracked state.
type Ticket struct {
	ThreadID   string
	UserID     string
	Category   TicketCategory
	ClaimedBy  *string
	CreatedAt  time.Time
	Archived   bool
	ArchivedAt *time.Time
	Metadata   map[string]any
}

// Claimed reports whether the ticket currently has a claimant.
func (t *Ticket) Claimed() bool {
	return t.ClaimedBy != nil && *t.ClaimedBy != ""
}

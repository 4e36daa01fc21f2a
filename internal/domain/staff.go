package domain

import "strings"

// StaffMember is a staff row from the shared permissions store, keyed by the
// platform user id.
type StaffMember struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the member holds the named role.
func (s *StaffMember) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Elevated reports whether the member holds Manager or any Supervisor_* role.
func (s *StaffMember) Elevated() bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == "Manager" || strings.HasPrefix(r, "Supervisor_") {
			return true
		}
	}
	return false
}

// ErrorRecord is a tracked bot error from the shared store, looked up by its
// fixed-length code during bug-report ticket creation.
type ErrorRecord struct {
	Code       string
	Command    string
	UserID     string
	GuildID    string
	FileSource string
	LineNumber int
	ErrorType  string
	Timestamp  int64
}

// ModerationCase is an open sanction case from the shared store.
type ModerationCase struct {
	CaseID       string
	CaseType     string
	SanctionType string
	EntityType   string
	EntityID     string
	Status       string
	Reason       string
	CreatedBy    string
	CreatedAt    int64
}

package identity

import "github.com/google/uuid"

// Capability is a resource:action code, checked against a role
type Capability string

const (
	CapViewLedger    Capability = "ledger:read"
	CapManageLedger  Capability = "ledger:write"
	CapRecordPayment Capability = "payment:create"
	CapViewReports   Capability = "report:read"
	CapManageSession Capability = "session:delete"
)

// Can is the single authorization check. target is the student whose data is
// touched, or uuid.Nil for portfolio-wide operations.
func Can(role Role, capability Capability, target uuid.UUID) bool {
	switch r := role.(type) {
	case AdminRole:
		return true
	case StudentRole:
		switch capability {
		case CapViewLedger:
			return target != uuid.Nil && target == r.StudentID
		case CapManageSession:
			return true
		}
	}
	return false
}

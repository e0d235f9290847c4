package identity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/shared"
)

// RoleKind names the variant of a Role
type RoleKind string

const (
	RoleKindAdmin   RoleKind = "admin"
	RoleKindStudent RoleKind = "student"
)

// Role is a closed set of variants: AdminRole or StudentRole.
// The unexported marker keeps other packages from adding variants.
type Role interface {
	Kind() RoleKind
	isRole()
}

// AdminRole manages all students and their ledgers
type AdminRole struct{}

// Kind returns RoleKindAdmin
func (AdminRole) Kind() RoleKind { return RoleKindAdmin }
func (AdminRole) isRole()        {}

// StudentRole sees only its own records
type StudentRole struct {
	StudentID uuid.UUID `json:"student_id"`
	ClassName string    `json:"class_name,omitempty"`
}

// Kind returns RoleKindStudent
func (StudentRole) Kind() RoleKind { return RoleKindStudent }
func (StudentRole) isRole()        {}

// NewStudentRole creates a student role bound to one student
func NewStudentRole(studentID uuid.UUID, className string) (StudentRole, error) {
	if studentID == uuid.Nil {
		return StudentRole{}, shared.NewDomainError("INVALID_ROLE", "Student role requires a student ID")
	}
	return StudentRole{StudentID: studentID, ClassName: className}, nil
}

// roleEnvelope is the wire form of a Role
type roleEnvelope struct {
	Kind      RoleKind   `json:"kind"`
	StudentID *uuid.UUID `json:"student_id,omitempty"`
	ClassName string     `json:"class_name,omitempty"`
}

// MarshalRole encodes a role with its kind tag
func MarshalRole(r Role) ([]byte, error) {
	env := roleEnvelope{Kind: r.Kind()}
	if s, ok := r.(StudentRole); ok {
		id := s.StudentID
		env.StudentID = &id
		env.ClassName = s.ClassName
	}
	return json.Marshal(env)
}

// UnmarshalRole decodes a role written by MarshalRole
func UnmarshalRole(data []byte) (Role, error) {
	var env roleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode role: %w", err)
	}
	return RoleFromParts(env.Kind, env.StudentID, env.ClassName)
}

// RoleFromParts rebuilds a role from its flattened fields, as carried in token claims
func RoleFromParts(kind RoleKind, studentID *uuid.UUID, className string) (Role, error) {
	switch kind {
	case RoleKindAdmin:
		return AdminRole{}, nil
	case RoleKindStudent:
		if studentID == nil {
			return nil, shared.NewDomainError("INVALID_ROLE", "Student role requires a student ID")
		}
		return NewStudentRole(*studentID, className)
	}
	return nil, shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role kind %q", kind))
}

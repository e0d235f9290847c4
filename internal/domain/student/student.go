package student

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/shared"
)

// Student is a roster row. The roster is managed elsewhere; the ledger reads
// the fee plan and identity from it.
type Student struct {
	shared.BaseEntity
	Name      string      `json:"name"`
	ClassName string      `json:"class_name"`
	Board     string      `json:"board"`
	FeePlan   fee.FeePlan `json:"fee_plan"`
	Active    bool        `json:"active"`
}

// NewStudent creates an active student
func NewStudent(name, className, board string, plan fee.FeePlan, now time.Time) (*Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Student name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Student name cannot exceed 200 characters")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &Student{
		BaseEntity: shared.NewBaseEntity(now),
		Name:       name,
		ClassName:  strings.TrimSpace(className),
		Board:      strings.TrimSpace(board),
		FeePlan:    plan,
		Active:     true,
	}, nil
}

// ChangeFeePlan replaces the plan. Existing ledger entries keep their amounts.
func (s *Student) ChangeFeePlan(plan fee.FeePlan, now time.Time) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	s.FeePlan = plan
	s.Touch(now)
	return nil
}

// Repository reads and writes roster rows
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Student, error)
	// FindAll lists the roster. A PageSize of 0 returns every row.
	FindAll(ctx context.Context, filter shared.Filter) ([]*Student, int64, error)
	Save(ctx context.Context, s *Student) error
}

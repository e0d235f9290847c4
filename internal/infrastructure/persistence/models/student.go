package models

import (
	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/fee"
	"github.com/tuition/backend/internal/domain/student"
)

// StudentModel is the persistence model for a roster row
type StudentModel struct {
	Row
	Name      string          `gorm:"type:varchar(200);not null;index"`
	ClassName string          `gorm:"type:varchar(50)"`
	Board     string          `gorm:"type:varchar(50)"`
	TermFee   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TermType  string          `gorm:"type:varchar(20);not null"`
	Category  string          `gorm:"type:varchar(20);not null;default:'MONTHLY'"`
	Active    bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student
func (m *StudentModel) ToDomain() *student.Student {
	return &student.Student{
		BaseEntity: m.Row.entity(),
		Name:       m.Name,
		ClassName:  m.ClassName,
		Board:      m.Board,
		FeePlan: fee.FeePlan{
			TermFee:  m.TermFee,
			TermType: fee.TermType(m.TermType),
			Category: fee.Category(m.Category),
		},
		Active: m.Active,
	}
}

// StudentModelFromDomain creates a persistence model from a domain Student
func StudentModelFromDomain(s *student.Student) *StudentModel {
	return &StudentModel{
		Row:       rowOf(s.BaseEntity),
		Name:      s.Name,
		ClassName: s.ClassName,
		Board:     s.Board,
		TermFee:   s.FeePlan.TermFee,
		TermType:  string(s.FeePlan.TermType),
		Category:  string(s.FeePlan.Category),
		Active:    s.Active,
	}
}

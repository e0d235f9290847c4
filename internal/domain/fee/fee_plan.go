package fee

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tuition/backend/internal/domain/shared"
)

// TermType is the duration of a single billing term
type TermType string

const (
	TermTypeTwoMonths   TermType = "2_MONTHS"
	TermTypeThreeMonths TermType = "3_MONTHS"
	TermTypeFourMonths  TermType = "4_MONTHS"
)

// IsValid checks if the term type is one of the known durations
func (t TermType) IsValid() bool {
	switch t {
	case TermTypeTwoMonths, TermTypeThreeMonths, TermTypeFourMonths:
		return true
	}
	return false
}

// Months returns the term duration in calendar months
func (t TermType) Months() int {
	switch t {
	case TermTypeTwoMonths:
		return 2
	case TermTypeThreeMonths:
		return 3
	case TermTypeFourMonths:
		return 4
	}
	return 0
}

// String returns the string representation of TermType
func (t TermType) String() string {
	return string(t)
}

// ParseTermType accepts both the canonical form and the human form ("3 months")
func ParseTermType(s string) (TermType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	switch norm {
	case "2_MONTHS", "2_MONTH":
		return TermTypeTwoMonths, nil
	case "3_MONTHS", "3_MONTH":
		return TermTypeThreeMonths, nil
	case "4_MONTHS", "4_MONTH":
		return TermTypeFourMonths, nil
	}
	return "", shared.NewDomainError(CodeInvalidTermType, "Term type must be one of 2 months, 3 months or 4 months")
}

// Category is the board/category of a student, which decides how terms are counted
type Category string

const (
	// CategoryMonthly derives term count and duration from the term type
	CategoryMonthly Category = "MONTHLY"
	// CategoryFixed always uses DefaultTermsPerCycle terms
	CategoryFixed Category = "FIXED"
)

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	return c == CategoryMonthly || c == CategoryFixed
}

// MonthsPerCycle is the length of one billing cycle
const MonthsPerCycle = 12

// DefaultTermsPerCycle is used when the category does not count terms by month
const DefaultTermsPerCycle = 4

// FeePlan is the per-student fee configuration. Owned by the Student entity.
type FeePlan struct {
	TermFee  decimal.Decimal `json:"term_fee"`
	TermType TermType        `json:"term_type"`
	Category Category        `json:"category"`
}

// NewFeePlan validates and creates a fee plan
func NewFeePlan(termFee decimal.Decimal, termType TermType, category Category) (FeePlan, error) {
	plan := FeePlan{TermFee: termFee, TermType: termType, Category: category}
	if err := plan.Validate(); err != nil {
		return FeePlan{}, err
	}
	return plan, nil
}

// Validate checks the plan's invariants
func (p FeePlan) Validate() error {
	if !p.TermFee.IsPositive() {
		return shared.NewDomainError(CodeInvalidFeePlan, "Term fee must be positive")
	}
	if !p.TermFee.Equal(p.TermFee.Truncate(MoneyScale)) {
		return shared.NewDomainError(CodeInvalidFeePlan, "Term fee has more decimal places than the currency allows")
	}
	if !p.TermType.IsValid() {
		return shared.NewDomainError(CodeInvalidTermType, "Term type is not valid")
	}
	if !p.Category.IsValid() {
		return shared.NewDomainError(CodeInvalidFeePlan, "Category is not valid")
	}
	return nil
}

// TermsPerCycle returns how many terms one billing cycle holds
func (p FeePlan) TermsPerCycle() int {
	if p.Category == CategoryMonthly {
		if m := p.TermType.Months(); m > 0 {
			return MonthsPerCycle / m
		}
	}
	return DefaultTermsPerCycle
}

// TermDurationMonths returns the spacing between consecutive due dates
func (p FeePlan) TermDurationMonths() int {
	if p.Category == CategoryMonthly {
		if m := p.TermType.Months(); m > 0 {
			return m
		}
	}
	return MonthsPerCycle / DefaultTermsPerCycle
}

// YearlyFee is the per-term fee times the number of terms in a cycle
func (p FeePlan) YearlyFee() decimal.Decimal {
	return p.TermFee.Mul(decimal.NewFromInt(int64(p.TermsPerCycle())))
}

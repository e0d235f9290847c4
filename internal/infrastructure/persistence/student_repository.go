package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/domain/student"
	"github.com/tuition/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStudentRepository implements student.Repository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByID finds a student by ID
func (r *GormStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*student.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists students with search, filters, ordering and pagination.
// A PageSize of 0 returns every matching row.
func (r *GormStudentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*student.Student, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StudentModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, StudentSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir, "ASC")
	query = query.Order(orderBy + " " + orderDir).Order("id ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var rows []models.StudentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*student.Student, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

func (r *GormStudentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "active":
			if active, ok := value.(bool); ok {
				query = query.Where("active = ?", active)
			}
		case "class_name", "board", "term_type", "category":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where(key+" = ?", s)
			}
		}
	}
	return query
}

// Save inserts or updates a student
func (r *GormStudentRepository) Save(ctx context.Context, s *student.Student) error {
	return r.db.WithContext(ctx).Save(models.StudentModelFromDomain(s)).Error
}

// Ensure GormStudentRepository implements student.Repository
var _ student.Repository = (*GormStudentRepository)(nil)

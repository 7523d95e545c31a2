package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/family/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertParent(ctx context.Context, db *gorm.DB, parent *domain.Parent) error {
	return db.WithContext(ctx).Create(parent).Error
}

func (r *repo) FindParentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Parent, error) {
	var parent domain.Parent
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&parent).Error; err != nil {
		return nil, err
	}
	if parent.ID == 0 {
		return nil, nil
	}
	return &parent, nil
}

func (r *repo) FindParentByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Parent, error) {
	var parent domain.Parent
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("id asc").
		Limit(1).
		Find(&parent).Error
	if err != nil {
		return nil, err
	}
	if parent.ID == 0 {
		return nil, nil
	}
	return &parent, nil
}

func (r *repo) UpdateParent(ctx context.Context, db *gorm.DB, parent *domain.Parent) error {
	return db.WithContext(ctx).Model(&domain.Parent{}).
		Where("id = ?", parent.ID).
		Updates(map[string]any{
			"first_name":         parent.FirstName,
			"last_name":          parent.LastName,
			"email":              parent.Email,
			"phone":              parent.Phone,
			"address":            parent.Address,
			"reduction_rfr":      parent.ReductionRFR,
			"taux_reduction_rfr": parent.TauxReductionRFR,
			"updated_at":         parent.UpdatedAt,
		}).Error
}

func (r *repo) DeleteParent(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Parent{}).Error
}

func (r *repo) InsertChild(ctx context.Context, db *gorm.DB, child *domain.Child) error {
	return db.WithContext(ctx).Create(child).Error
}

func (r *repo) FindChildByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Child, error) {
	var child domain.Child
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&child).Error; err != nil {
		return nil, err
	}
	if child.ID == 0 {
		return nil, nil
	}
	return &child, nil
}

func (r *repo) UpdateChild(ctx context.Context, db *gorm.DB, child *domain.Child) error {
	return db.WithContext(ctx).Model(&domain.Child{}).
		Where("id = ?", child.ID).
		Updates(map[string]any{
			"first_name":        child.FirstName,
			"last_name":         child.LastName,
			"birth_date":        child.BirthDate,
			"level":             child.Level,
			"class_name":        child.ClassName,
			"parent2_id":        child.Parent2ID,
			"payment_frequency": child.PaymentFrequency,
			"updated_at":        child.UpdatedAt,
		}).Error
}

func (r *repo) CountChildInvoices(ctx context.Context, db *gorm.DB, childID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Table("invoices").Where("child_id = ?", childID).Count(&count).Error
	return count, err
}

func (r *repo) DeleteChild(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	tx := db.WithContext(ctx)
	for _, table := range []string{"bookings", "justificatifs", "reinscriptions"} {
		if err := tx.Exec("DELETE FROM "+table+" WHERE child_id = ?", id).Error; err != nil {
			return err
		}
	}
	if err := tx.Exec("UPDATE preinscriptions SET child_id = NULL WHERE child_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Where("child_id = ?", id).Delete(&domain.Enrollment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("child_id = ?", id).Delete(&domain.RegulationSignature{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&domain.Child{}).Error
}

func (r *repo) InsertEnrollment(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) error {
	return db.WithContext(ctx).Create(enrollment).Error
}

func (r *repo) FindEnrollment(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := db.WithContext(ctx).
		Where("child_id = ? AND school_year = ?", childID, schoolYear).
		Limit(1).
		Find(&enrollment).Error
	if err != nil {
		return nil, err
	}
	if enrollment.ID == 0 {
		return nil, nil
	}
	return &enrollment, nil
}

func (r *repo) ListEnrollmentsByChild(ctx context.Context, db *gorm.DB, childID snowflake.ID) ([]*domain.Enrollment, error) {
	var enrollments []*domain.Enrollment
	err := db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("school_year asc").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *repo) ListEnrollmentsByYear(ctx context.Context, db *gorm.DB, schoolYear string, status domain.EnrollmentStatus) ([]*domain.Enrollment, error) {
	var enrollments []*domain.Enrollment
	stmt := db.WithContext(ctx).Where("school_year = ?", schoolYear)
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if err := stmt.Order("id asc").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *repo) UpdateEnrollmentStatus(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) error {
	return db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]any{
			"status":     enrollment.Status,
			"updated_at": enrollment.UpdatedAt,
		}).Error
}

func (r *repo) ListActiveSiblings(ctx context.Context, db *gorm.DB, parentID snowflake.ID, schoolYear string) ([]*domain.Child, error) {
	var children []*domain.Child
	err := db.WithContext(ctx).
		Model(&domain.Child{}).
		Select("children.*").
		Joins("JOIN enrollments e ON e.child_id = children.id").
		Where("(children.parent1_id = ? OR children.parent2_id = ?) AND e.school_year = ? AND e.status = ?",
			parentID, parentID, schoolYear, domain.EnrollmentActive).
		Order("children.birth_date asc, children.id asc").
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (r *repo) UpsertRegulationSignature(ctx context.Context, db *gorm.DB, signature *domain.RegulationSignature) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "child_id"}, {Name: "school_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"signed_by", "signed_at"}),
	}).Create(signature).Error
}

func (r *repo) FindRegulationSignature(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string) (*domain.RegulationSignature, error) {
	var signature domain.RegulationSignature
	err := db.WithContext(ctx).
		Where("child_id = ? AND school_year = ?", childID, schoolYear).
		Limit(1).
		Find(&signature).Error
	if err != nil {
		return nil, err
	}
	if signature.ID == 0 {
		return nil, nil
	}
	return &signature, nil
}

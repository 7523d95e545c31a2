package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertParent(ctx context.Context, db *gorm.DB, parent *Parent) error
	FindParentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Parent, error)
	FindParentByEmail(ctx context.Context, db *gorm.DB, email string) (*Parent, error)
	UpdateParent(ctx context.Context, db *gorm.DB, parent *Parent) error
	DeleteParent(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	InsertChild(ctx context.Context, db *gorm.DB, child *Child) error
	FindChildByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Child, error)
	UpdateChild(ctx context.Context, db *gorm.DB, child *Child) error
	// CountChildInvoices counts invoices issued for the child.
	CountChildInvoices(ctx context.Context, db *gorm.DB, childID snowflake.ID) (int64, error)
	// DeleteChild removes the child with its enrollments, signatures,
	// bookings, justificatifs and reinscriptions. Dossiers that produced the
	// child keep their row with child_id cleared.
	DeleteChild(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	InsertEnrollment(ctx context.Context, db *gorm.DB, enrollment *Enrollment) error
	FindEnrollment(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string) (*Enrollment, error)
	ListEnrollmentsByChild(ctx context.Context, db *gorm.DB, childID snowflake.ID) ([]*Enrollment, error)
	ListEnrollmentsByYear(ctx context.Context, db *gorm.DB, schoolYear string, status EnrollmentStatus) ([]*Enrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, db *gorm.DB, enrollment *Enrollment) error
	// ListActiveSiblings returns children of parentID holding an active
	// enrollment in schoolYear, oldest first.
	ListActiveSiblings(ctx context.Context, db *gorm.DB, parentID snowflake.ID, schoolYear string) ([]*Child, error)

	UpsertRegulationSignature(ctx context.Context, db *gorm.DB, signature *RegulationSignature) error
	FindRegulationSignature(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string) (*RegulationSignature, error)
}

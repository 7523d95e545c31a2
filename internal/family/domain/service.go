package domain

import (
	"context"
	"errors"

	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type CreateParentRequest struct {
	FirstName        string           `json:"first_name" validate:"required,max=128"`
	LastName         string           `json:"last_name" validate:"required,max=128"`
	Email            string           `json:"email" validate:"required,email"`
	Phone            string           `json:"phone" validate:"max=32"`
	Address          string           `json:"address"`
	ReductionRFR     bool             `json:"reduction_rfr"`
	TauxReductionRFR *decimal.Decimal `json:"taux_reduction_rfr"`
}

type UpdateParentRequest struct {
	FirstName        *string          `json:"first_name" validate:"omitempty,max=128"`
	LastName         *string          `json:"last_name" validate:"omitempty,max=128"`
	Email            *string          `json:"email" validate:"omitempty,email"`
	Phone            *string          `json:"phone" validate:"omitempty,max=32"`
	Address          *string          `json:"address"`
	ReductionRFR     *bool            `json:"reduction_rfr"`
	TauxReductionRFR *decimal.Decimal `json:"taux_reduction_rfr"`
}

type CreateChildRequest struct {
	FirstName        string `json:"first_name" validate:"required,max=128"`
	LastName         string `json:"last_name" validate:"required,max=128"`
	BirthDate        string `json:"birth_date" validate:"required"`
	Level            Level  `json:"level" validate:"required"`
	ClassName        string `json:"class_name" validate:"max=64"`
	Parent1ID        string `json:"parent1_id" validate:"required"`
	Parent2ID        string `json:"parent2_id"`
	PaymentFrequency string `json:"payment_frequency"`
}

type UpdateChildRequest struct {
	FirstName        *string `json:"first_name" validate:"omitempty,max=128"`
	LastName         *string `json:"last_name" validate:"omitempty,max=128"`
	BirthDate        *string `json:"birth_date"`
	Level            *Level  `json:"level"`
	ClassName        *string `json:"class_name" validate:"omitempty,max=64"`
	Parent2ID        *string `json:"parent2_id"`
	PaymentFrequency *string `json:"payment_frequency"`
}

type ListParentsRequest struct {
	Search string `form:"q"`
	pagination.Pagination
}

type ListParentsResponse struct {
	pagination.PageInfo
	Parents []Parent `json:"parents"`
}

type ListChildrenRequest struct {
	ParentID   string `form:"parent_id"`
	Level      string `form:"level"`
	SchoolYear string `form:"school_year"`
	pagination.Pagination
}

type ListChildrenResponse struct {
	pagination.PageInfo
	Children []Child `json:"children"`
}

type SignRegulationRequest struct {
	SchoolYear string `json:"school_year" validate:"required,len=9"`
	SignedBy   string `json:"signed_by" validate:"required,max=255"`
}

// ChildDetail is a child with its guardians and enrollment history.
type ChildDetail struct {
	Child
	Parent1     *Parent      `json:"parent1,omitempty"`
	Parent2     *Parent      `json:"parent2,omitempty"`
	Enrollments []Enrollment `json:"enrollments"`
}

type Service interface {
	CreateParent(ctx context.Context, req CreateParentRequest) (Parent, error)
	GetParent(ctx context.Context, id string) (Parent, error)
	ListParents(ctx context.Context, req ListParentsRequest) (ListParentsResponse, error)
	UpdateParent(ctx context.Context, id string, req UpdateParentRequest) (Parent, error)
	DeleteParent(ctx context.Context, id string) error

	CreateChild(ctx context.Context, req CreateChildRequest) (Child, error)
	GetChild(ctx context.Context, id string) (Child, error)
	GetChildDetail(ctx context.Context, id string) (ChildDetail, error)
	ListChildren(ctx context.Context, req ListChildrenRequest) (ListChildrenResponse, error)
	UpdateChild(ctx context.Context, id string, req UpdateChildRequest) (Child, error)
	// DeleteChild refuses children with invoices; everything else recorded
	// for the child goes with it.
	DeleteChild(ctx context.Context, id string) error

	Enroll(ctx context.Context, childID, schoolYear string) (Enrollment, error)
	TerminateEnrollment(ctx context.Context, childID, schoolYear string) (Enrollment, error)
	ListChildEnrollments(ctx context.Context, childID string) ([]Enrollment, error)
	ListEnrollments(ctx context.Context, schoolYear string) ([]Enrollment, error)
	// ChildrenAwaitingEnrollment lists children active in the year before
	// schoolYear that hold no enrollment for schoolYear yet.
	ChildrenAwaitingEnrollment(ctx context.Context, schoolYear string) ([]Child, error)

	SignRegulation(ctx context.Context, childID string, req SignRegulationRequest) (RegulationSignature, error)
	GetRegulationSignature(ctx context.Context, childID, schoolYear string) (RegulationSignature, error)

	// CountFratrie counts the parent's children actively enrolled in schoolYear.
	CountFratrie(ctx context.Context, parentID, schoolYear string) (int, error)
	// SiblingRank is the child's 1-based position by age among the actively
	// enrolled children of its first guardian. A child that is not enrolled
	// ranks after every enrolled sibling.
	SiblingRank(ctx context.Context, childID, schoolYear string) (int, error)
	// IsPremiereAnnee reports whether the child has no enrollment in any
	// earlier school year.
	IsPremiereAnnee(ctx context.Context, childID, schoolYear string) (bool, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidRate        = errors.New("invalid_rfr_rate")
	ErrInvalidBirthDate   = errors.New("invalid_birth_date")
	ErrInvalidLevel       = errors.New("invalid_level")
	ErrInvalidFrequency   = errors.New("invalid_payment_frequency")
	ErrInvalidSchoolYear  = errors.New("invalid_school_year")
	ErrInvalidSignature   = errors.New("invalid_signed_by")
	ErrParentNotFound     = errors.New("parent_not_found")
	ErrChildNotFound      = errors.New("child_not_found")
	ErrEnrollmentNotFound = errors.New("enrollment_not_found")
	ErrSignatureNotFound  = errors.New("regulation_signature_not_found")
	ErrAlreadyEnrolled    = errors.New("already_enrolled")
	ErrParentHasChildren  = errors.New("parent_has_children")
	ErrChildHasInvoices   = errors.New("child_has_invoices")
	ErrSameParent         = errors.New("same_parent")
)

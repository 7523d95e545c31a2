package domain

import (
	"context"
	"errors"

	"github.com/montessori/ecole/pkg/db/pagination"
)

type Guardian struct {
	FirstName string `json:"first_name" validate:"required,max=128"`
	LastName  string `json:"last_name" validate:"required,max=128"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=32"`
	Address   string `json:"address"`
}

type CreateRequest struct {
	SchoolYear     string         `json:"school_year" validate:"required,len=9"`
	ChildFirstName string         `json:"child_first_name" validate:"required,max=128"`
	ChildLastName  string         `json:"child_last_name" validate:"required,max=128"`
	ChildBirthDate string         `json:"child_birth_date" validate:"required"`
	Level          string         `json:"level" validate:"required"`
	Guardian1      Guardian       `json:"guardian1" validate:"required"`
	Guardian2      *Guardian      `json:"guardian2" validate:"omitempty"`
	Answers        map[string]any `json:"answers"`
	Comment        string         `json:"comment"`
}

// UpdateRequest patches a pending dossier. Answers replaces the stored map.
type UpdateRequest struct {
	SchoolYear     *string        `json:"school_year" validate:"omitempty,len=9"`
	ChildFirstName *string        `json:"child_first_name" validate:"omitempty,max=128"`
	ChildLastName  *string        `json:"child_last_name" validate:"omitempty,max=128"`
	ChildBirthDate *string        `json:"child_birth_date"`
	Level          *string        `json:"level"`
	Guardian1      *Guardian      `json:"guardian1"`
	Guardian2      *Guardian      `json:"guardian2"`
	Answers        map[string]any `json:"answers"`
	Comment        *string        `json:"comment"`
}

type ListRequest struct {
	SchoolYear string `form:"school_year"`
	Status     string `form:"status"`
	Search     string `form:"q"`
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Preinscriptions []Preinscription `json:"preinscriptions"`
}

type RefuseRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// Decision is the outcome of a validation: the dossier plus the family
// records it produced.
type Decision struct {
	Preinscription Preinscription `json:"preinscription"`
	ParentID       string         `json:"parent_id"`
	ChildID        string         `json:"child_id"`
	EnrollmentID   string         `json:"enrollment_id"`
}

type Document struct {
	FileName string
	Content  []byte
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Preinscription, error)
	// Get accepts either the numeric id or the public reference.
	Get(ctx context.Context, id string) (Preinscription, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, id string, req UpdateRequest) (Preinscription, error)
	Validate(ctx context.Context, id string) (Decision, error)
	Refuse(ctx context.Context, id string, req RefuseRequest) (Preinscription, error)
	Cancel(ctx context.Context, id string) (Preinscription, error)
	PDF(ctx context.Context, id string) (Document, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidSchoolYear = errors.New("invalid_school_year")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidBirthDate  = errors.New("invalid_birth_date")
	ErrInvalidLevel      = errors.New("invalid_level")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidComment    = errors.New("invalid_comment")
	ErrNotFound          = errors.New("preinscription_not_found")
	ErrNotPending        = errors.New("preinscription_not_pending")
)

package domain

import (
	"context"
	"errors"
)

type CreateTypeRequest struct {
	Code        string `json:"code" validate:"max=64"`
	Label       string `json:"label" validate:"required,max=255"`
	Description string `json:"description"`
	Mandatory   bool   `json:"mandatory"`
	Active      *bool  `json:"active"`
}

type UpdateTypeRequest struct {
	Label       *string `json:"label" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Mandatory   *bool   `json:"mandatory"`
	Active      *bool   `json:"active"`
}

// SubmitRequest registers an uploaded document. Type accepts a type id or code.
type SubmitRequest struct {
	ChildID    string `json:"child_id" validate:"required"`
	Type       string `json:"type" validate:"required"`
	SchoolYear string `json:"school_year" validate:"required,len=9"`
	FileName   string `json:"file_name" validate:"required,max=255"`
	StorageKey string `json:"storage_key" validate:"max=512"`
}

type RefuseRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type Service interface {
	CreateType(ctx context.Context, req CreateTypeRequest) (JustificatifType, error)
	UpdateType(ctx context.Context, id string, req UpdateTypeRequest) (JustificatifType, error)
	DeleteType(ctx context.Context, id string) error
	ListTypes(ctx context.Context, activeOnly bool) ([]JustificatifType, error)

	// Submit records a document. A pending or refused document for the same
	// child, type and year is replaced; an approved one is kept.
	Submit(ctx context.Context, req SubmitRequest) (Justificatif, error)
	Get(ctx context.Context, id string) (Justificatif, error)
	Approve(ctx context.Context, id string) (Justificatif, error)
	Refuse(ctx context.Context, id string, req RefuseRequest) (Justificatif, error)
	ListForChild(ctx context.Context, childID, schoolYear string) ([]Justificatif, error)
	// Missing lists the active mandatory types the child has no pending or
	// approved document for.
	Missing(ctx context.Context, childID, schoolYear string) ([]JustificatifType, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidLabel      = errors.New("invalid_label")
	ErrInvalidCode       = errors.New("invalid_code")
	ErrInvalidSchoolYear = errors.New("invalid_school_year")
	ErrInvalidFileName   = errors.New("invalid_file_name")
	ErrInvalidComment    = errors.New("invalid_comment")
	ErrTypeExists        = errors.New("justificatif_type_already_exists")
	ErrTypeNotFound      = errors.New("justificatif_type_not_found")
	ErrTypeInactive      = errors.New("justificatif_type_inactive")
	ErrTypeInUse         = errors.New("justificatif_type_in_use")
	ErrNotFound          = errors.New("justificatif_not_found")
	ErrNotPending        = errors.New("justificatif_not_pending")
	ErrAlreadyApproved   = errors.New("justificatif_already_approved")
)

package domain

import (
	"context"
	"errors"

	"github.com/montessori/ecole/pkg/db/pagination"
)

type CreateRequest struct {
	ParentID   string `json:"parent_id" validate:"required"`
	ChildID    string `json:"child_id" validate:"required"`
	SchoolYear string `json:"school_year" validate:"required,len=9"`
	Comment    string `json:"comment"`
}

type ListRequest struct {
	SchoolYear string `form:"school_year"`
	Status     string `form:"status"`
	ParentID   string `form:"parent_id"`
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Reinscriptions []Reinscription `json:"reinscriptions"`
}

type RefuseRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type Service interface {
	Request(ctx context.Context, req CreateRequest) (Reinscription, error)
	Get(ctx context.Context, id string) (Reinscription, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// Validate enrolls the child for the requested year.
	Validate(ctx context.Context, id string) (Reinscription, error)
	Refuse(ctx context.Context, id string, req RefuseRequest) (Reinscription, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidSchoolYear = errors.New("invalid_school_year")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidComment    = errors.New("invalid_comment")
	ErrNotFound          = errors.New("reinscription_not_found")
	ErrForbidden         = errors.New("child_not_owned_by_parent")
	ErrAlreadyReenrolled = errors.New("already_reenrolled")
	ErrNotPending        = errors.New("reinscription_not_pending")
)

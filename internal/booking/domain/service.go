package domain

import (
	"context"
	"errors"
)

type BookRequest struct {
	Dates []string `json:"dates" validate:"required,min=1,max=31,dive,required"`
}

type BookResult struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
}

type Service interface {
	// Book reserves the given days. Days already booked are left as is.
	Book(ctx context.Context, childID string, kind Kind, req BookRequest) (BookResult, error)
	Cancel(ctx context.Context, childID string, kind Kind, date string) error
	// List returns the child's bookings for a "YYYY-MM" month.
	List(ctx context.Context, childID string, kind Kind, month string) ([]Booking, error)
	CountForMonth(ctx context.Context, childID string, kind Kind, year int, month int) (int, error)
}

var (
	ErrInvalidKind   = errors.New("invalid_booking_kind")
	ErrInvalidDate   = errors.New("invalid_date")
	ErrInvalidMonth  = errors.New("invalid_month")
	ErrNoDates       = errors.New("no_dates")
	ErrNotFound      = errors.New("booking_not_found")
	ErrChildNotFound = errors.New("child_not_found")
)

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "EN_ATTENTE"
	StatusValidated Status = "VALIDEE"
	StatusRefused   Status = "REFUSEE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRefused:
		return true
	}
	return false
}

// Reinscription is a guardian's request to keep a child at school for the
// following school year.
type Reinscription struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ChildID     snowflake.ID `gorm:"not null;index:ix_reinscriptions_child_year" json:"child_id"`
	ParentID    snowflake.ID `gorm:"not null;index" json:"parent_id"`
	SchoolYear  string       `gorm:"type:varchar(9);not null;index:ix_reinscriptions_child_year" json:"school_year"`
	Status      Status       `gorm:"type:varchar(16);not null;index" json:"status"`
	Comment     string       `gorm:"type:text" json:"comment,omitempty"`
	RequestedAt time.Time    `gorm:"not null" json:"requested_at"`
	DecidedAt   *time.Time   `json:"decided_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Reinscription) TableName() string { return "reinscriptions" }

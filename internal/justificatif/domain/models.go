package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "EN_ATTENTE"
	StatusApproved Status = "VALIDE"
	StatusRefused  Status = "REFUSE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRefused:
		return true
	}
	return false
}

// JustificatifType is a kind of supporting document the school asks for,
// such as an insurance certificate.
type JustificatifType struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Label       string       `gorm:"type:varchar(255);not null" json:"label"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Mandatory   bool         `gorm:"not null" json:"mandatory"`
	Active      bool         `gorm:"not null" json:"active"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (JustificatifType) TableName() string { return "justificatif_types" }

// Justificatif is the metadata of a document submitted for a child. The file
// itself lives in external storage under StorageKey.
type Justificatif struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ChildID     snowflake.ID `gorm:"not null;uniqueIndex:ux_justificatifs_child_type_year" json:"child_id"`
	TypeID      snowflake.ID `gorm:"not null;uniqueIndex:ux_justificatifs_child_type_year;index" json:"type_id"`
	SchoolYear  string       `gorm:"type:varchar(9);not null;uniqueIndex:ux_justificatifs_child_type_year" json:"school_year"`
	FileName    string       `gorm:"type:varchar(255);not null" json:"file_name"`
	StorageKey  string       `gorm:"type:varchar(512)" json:"storage_key,omitempty"`
	Status      Status       `gorm:"type:varchar(16);not null;index" json:"status"`
	Comment     string       `gorm:"type:text" json:"comment,omitempty"`
	SubmittedAt time.Time    `gorm:"not null" json:"submitted_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Justificatif) TableName() string { return "justificatifs" }

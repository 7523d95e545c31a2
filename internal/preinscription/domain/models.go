package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "EN_ATTENTE"
	StatusValidated Status = "VALIDE"
	StatusRefused   Status = "REFUSE"
	StatusCancelled Status = "ANNULE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRefused, StatusCancelled:
		return true
	}
	return false
}

// Preinscription is an admission application submitted by a family that is
// not yet known to the school. Validating it creates the family records.
type Preinscription struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Reference  string       `gorm:"type:varchar(26);not null;uniqueIndex" json:"reference"`
	SchoolYear string       `gorm:"type:varchar(9);not null;index" json:"school_year"`
	Status     Status       `gorm:"type:varchar(16);not null;index" json:"status"`

	ChildFirstName string             `gorm:"type:varchar(128);not null" json:"child_first_name"`
	ChildLastName  string             `gorm:"type:varchar(128);not null" json:"child_last_name"`
	ChildBirthDate time.Time          `gorm:"not null" json:"child_birth_date"`
	Level          familydomain.Level `gorm:"type:varchar(16);not null" json:"level"`

	Guardian1FirstName string `gorm:"type:varchar(128);not null" json:"guardian1_first_name"`
	Guardian1LastName  string `gorm:"type:varchar(128);not null" json:"guardian1_last_name"`
	Guardian1Email     string `gorm:"type:varchar(255);not null;index" json:"guardian1_email"`
	Guardian1Phone     string `gorm:"type:varchar(32)" json:"guardian1_phone,omitempty"`
	Guardian1Address   string `gorm:"type:text" json:"guardian1_address,omitempty"`
	Guardian2FirstName string `gorm:"type:varchar(128)" json:"guardian2_first_name,omitempty"`
	Guardian2LastName  string `gorm:"type:varchar(128)" json:"guardian2_last_name,omitempty"`
	Guardian2Email     string `gorm:"type:varchar(255)" json:"guardian2_email,omitempty"`
	Guardian2Phone     string `gorm:"type:varchar(32)" json:"guardian2_phone,omitempty"`

	Answers datatypes.JSONMap `json:"answers,omitempty"`
	Comment string            `gorm:"type:text" json:"comment,omitempty"`

	ChildID   *snowflake.ID `json:"child_id,omitempty"`
	ParentID  *snowflake.ID `json:"parent_id,omitempty"`
	DecidedAt *time.Time    `json:"decided_at,omitempty"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null" json:"updated_at"`
}

func (Preinscription) TableName() string { return "preinscriptions" }

func (p Preinscription) ChildName() string {
	return p.ChildFirstName + " " + p.ChildLastName
}

func (p Preinscription) HasSecondGuardian() bool {
	return p.Guardian2LastName != "" || p.Guardian2Email != ""
}

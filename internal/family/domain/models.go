package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Level string

const (
	LevelMaternelle  Level = "MATERNELLE"
	LevelElementaire Level = "ELEMENTAIRE"
)

func (l Level) Valid() bool {
	return l == LevelMaternelle || l == LevelElementaire
}

type PaymentFrequency string

const (
	FrequencyMensuel     PaymentFrequency = "MENSUEL"
	FrequencyTrimestriel PaymentFrequency = "TRIMESTRIEL"
	FrequencyAnnuel      PaymentFrequency = "ANNUEL"
)

func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyMensuel, FrequencyTrimestriel, FrequencyAnnuel:
		return true
	}
	return false
}

type EnrollmentStatus string

const (
	EnrollmentActive     EnrollmentStatus = "ACTIVE"
	EnrollmentTerminated EnrollmentStatus = "TERMINEE"
)

// Parent is a guardian. ReductionRFR enables the income-based tuition
// discount at TauxReductionRFR percent.
type Parent struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	FirstName        string          `gorm:"type:varchar(128);not null" json:"first_name"`
	LastName         string          `gorm:"type:varchar(128);not null;index" json:"last_name"`
	Email            string          `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone            string          `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Address          string          `gorm:"type:text" json:"address,omitempty"`
	ReductionRFR     bool            `gorm:"column:reduction_rfr;not null;default:false" json:"reduction_rfr"`
	TauxReductionRFR decimal.Decimal `gorm:"column:taux_reduction_rfr;type:numeric(5,2);not null;default:0" json:"taux_reduction_rfr"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (Parent) TableName() string { return "parents" }

func (p Parent) FullName() string {
	return p.FirstName + " " + p.LastName
}

type Child struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	FirstName        string           `gorm:"type:varchar(128);not null" json:"first_name"`
	LastName         string           `gorm:"type:varchar(128);not null;index" json:"last_name"`
	BirthDate        time.Time        `gorm:"not null" json:"birth_date"`
	Level            Level            `gorm:"type:varchar(16);not null" json:"level"`
	ClassName        string           `gorm:"type:varchar(64)" json:"class_name,omitempty"`
	Parent1ID        snowflake.ID     `gorm:"column:parent1_id;not null;index" json:"parent1_id"`
	Parent2ID        *snowflake.ID    `gorm:"column:parent2_id;index" json:"parent2_id,omitempty"`
	PaymentFrequency PaymentFrequency `gorm:"type:varchar(16);not null;default:'MENSUEL'" json:"payment_frequency"`
	CreatedAt        time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null" json:"updated_at"`
}

func (Child) TableName() string { return "children" }

func (c Child) FullName() string {
	return c.FirstName + " " + c.LastName
}

// HasParent reports whether parentID is one of the child's guardians.
func (c Child) HasParent(parentID snowflake.ID) bool {
	if parentID == 0 {
		return false
	}
	if c.Parent1ID == parentID {
		return true
	}
	return c.Parent2ID != nil && *c.Parent2ID == parentID
}

type Enrollment struct {
	ID         snowflake.ID     `gorm:"primaryKey" json:"id"`
	ChildID    snowflake.ID     `gorm:"not null;uniqueIndex:ux_enrollments_child_year" json:"child_id"`
	SchoolYear string           `gorm:"type:varchar(9);not null;uniqueIndex:ux_enrollments_child_year;index" json:"school_year"`
	Status     EnrollmentStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollments" }

type RegulationSignature struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ChildID    snowflake.ID `gorm:"not null;uniqueIndex:ux_regulation_child_year" json:"child_id"`
	SchoolYear string       `gorm:"type:varchar(9);not null;uniqueIndex:ux_regulation_child_year" json:"school_year"`
	SignedBy   string       `gorm:"type:varchar(255);not null" json:"signed_by"`
	SignedAt   time.Time    `gorm:"not null" json:"signed_at"`
}

func (RegulationSignature) TableName() string { return "regulation_signatures" }

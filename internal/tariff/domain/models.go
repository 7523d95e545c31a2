package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryScolarite      Category = "SCOLARITE"
	CategoryRepas          Category = "REPAS"
	CategoryPeriscolaire   Category = "PERISCOLAIRE"
	CategoryInscription    Category = "INSCRIPTION"
	CategoryFonctionnement Category = "FONCTIONNEMENT"
	CategoryFratrie        Category = "FRATRIE"
	CategoryAutre          Category = "AUTRE"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryScolarite, CategoryRepas, CategoryPeriscolaire, CategoryInscription,
		CategoryFonctionnement, CategoryFratrie, CategoryAutre:
		return true
	}
	return false
}

// Tariff is a named rate for one school year.
type Tariff struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	Key        string          `gorm:"column:rate_key;type:varchar(64);not null;uniqueIndex:ux_tariffs_key_year" json:"key"`
	SchoolYear string          `gorm:"type:varchar(9);not null;uniqueIndex:ux_tariffs_key_year;index" json:"school_year"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Category   Category        `gorm:"type:varchar(32);not null" json:"category"`
	Label      string          `gorm:"type:varchar(255)" json:"label,omitempty"`
	Active     bool            `gorm:"not null" json:"active"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

func (Tariff) TableName() string { return "tariffs" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindRepasMidi    Kind = "REPAS_MIDI"
	KindPeriscolaire Kind = "PERISCOLAIRE"
)

func (k Kind) Valid() bool {
	return k == KindRepasMidi || k == KindPeriscolaire
}

// Booking reserves a meal or an after-school session for one child on one day.
type Booking struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ChildID   snowflake.ID `gorm:"not null;uniqueIndex:ux_bookings_child_kind_date" json:"child_id"`
	Kind      Kind         `gorm:"type:varchar(16);not null;uniqueIndex:ux_bookings_child_kind_date" json:"kind"`
	Date      time.Time    `gorm:"type:date;not null;uniqueIndex:ux_bookings_child_kind_date;index" json:"date"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Booking) TableName() string { return "bookings" }

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchoolConfigIsValid(t *testing.T) {
	assert.NoError(t, validateSchoolConfig(DefaultSchoolConfig()))
}

func TestValidateSchoolConfigRejectsBadReminder(t *testing.T) {
	cfg := DefaultSchoolConfig()
	cfg.Reminder.Month = 13
	assert.Error(t, validateSchoolConfig(cfg))

	cfg = DefaultSchoolConfig()
	cfg.Invoice.NumberTemplate = " "
	assert.Error(t, validateSchoolConfig(cfg))
}

func TestStaticHolderReturnsStoredConfig(t *testing.T) {
	cfg := DefaultSchoolConfig()
	cfg.School.Name = "Les Petits Pas"
	holder := NewStaticSchoolConfigHolder(cfg)
	assert.Equal(t, "Les Petits Pas", holder.Get().School.Name)
}

func TestLoadFallsBackToSeptemberStart(t *testing.T) {
	t.Setenv("SCHOOL_YEAR_START_MONTH", "42")
	cfg := Load()
	assert.Equal(t, 9, cfg.SchoolYearStartMonth)
}

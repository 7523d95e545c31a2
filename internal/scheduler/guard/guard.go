package guard

import (
	"errors"
	"time"

	"github.com/montessori/ecole/pkg/schoolyear"
)

var (
	ErrInvalidReminderDate = errors.New("invalid_reminder_date")
	ErrNotReminderDay      = errors.New("not_reminder_day")
)

func EnsureReminderDay(now time.Time, month, day int) error {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ErrInvalidReminderDate
	}
	if int(now.Month()) != month || now.Day() != day {
		return ErrNotReminderDay
	}
	return nil
}

// UpcomingSchoolYear is the school year whose rentrée a reminder sent at now
// announces: the current one from its first month on, the next one before.
func UpcomingSchoolYear(now time.Time, startMonth time.Month) schoolyear.Year {
	current := schoolyear.ForDate(now, startMonth)
	if now.Month() >= startMonth {
		return current
	}
	return current.Next()
}

package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cal *Calendar) error {
	if cal.Meta.CalendarID == "" {
		return ValidationError{"meta.calendar_id", "required"}
	}
	if cal.Meta.Timezone == "" {
		return ValidationError{"meta.timezone", "required"}
	}
	if _, err := time.LoadLocation(cal.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", err.Error()}
	}

	if err := validateHHMM(cal.Session.Open); err != nil {
		return ValidationError{"session.open", err.Error()}
	}
	if err := validateHHMM(cal.Session.Close); err != nil {
		return ValidationError{"session.close", err.Error()}
	}

	// session: open < close
	openAt, _ := time.Parse("15:04", cal.Session.Open)
	closeAt, _ := time.Parse("15:04", cal.Session.Close)
	if !openAt.Before(closeAt) {
		return ValidationError{"session", "open must be before close"}
	}

	for i, holiday := range cal.Holidays {
		if _, err := time.Parse("2006-01-02", holiday); err != nil {
			return ValidationError{fmt.Sprintf("holidays[%d]", i), "must be YYYY-MM-DD"}
		}
	}

	return nil
}

func validateHHMM(s string) error {
	re := regexp.MustCompile(`^\d{2}:\d{2}$`)
	if !re.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}

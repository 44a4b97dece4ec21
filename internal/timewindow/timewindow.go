// Package timewindow turns "N hours" / "N days" requests into absolute cutoffs.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chat-history-bot/internal/models"
)

const (
	// UnitHours is the canonical hours unit
	UnitHours = "hours"

	// UnitDays is the canonical days unit
	UnitDays = "days"
)

// Limits bounds how far back a window may reach
type Limits struct {
	MaxDays  int
	MaxHours int
}

// LimitsFromConfig extracts lookback limits from bot configuration
func LimitsFromConfig(cfg *models.BotConfig) Limits {
	return Limits{
		MaxDays:  cfg.MaxDaysLookback,
		MaxHours: cfg.MaxHoursLookback,
	}
}

// ValidationError describes user input that cannot be turned into a window.
// Message is safe to show to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NormalizeUnit lower-cases a unit and maps singular forms to plural.
// An empty unit means days. Unknown units are returned lower-cased.
func NormalizeUnit(unit string) string {
	normalized := strings.ToLower(strings.TrimSpace(unit))

	switch normalized {
	case "":
		return UnitDays
	case "hour":
		return UnitHours
	case "day":
		return UnitDays
	}

	return normalized
}

// Validate checks magnitude against the bounds for its unit
func Validate(magnitude int, unit string, limits Limits) error {
	switch NormalizeUnit(unit) {
	case UnitDays:
		if magnitude < 1 || magnitude > limits.MaxDays {
			return invalid("Timeframe must be between 1 and %d days!", limits.MaxDays)
		}
	case UnitHours:
		if magnitude < 1 || magnitude > limits.MaxHours {
			return invalid("Timeframe must be between 1 and %d hours (%d days)!", limits.MaxHours, limits.MaxHours/24)
		}
	default:
		return invalid("Invalid time unit! Must be 'hours' or 'days'.")
	}

	return nil
}

// Resolve validates the request and computes the window ending at now
func Resolve(magnitude int, unit string, limits Limits, now time.Time) (models.TimeWindow, error) {
	if err := Validate(magnitude, unit, limits); err != nil {
		return models.TimeWindow{}, err
	}

	unit = NormalizeUnit(unit)
	now = now.UTC()

	var (
		start time.Time
		label string
	)
	if unit == UnitDays {
		start = now.AddDate(0, 0, -magnitude)
		label = "day"
	} else {
		start = now.Add(-time.Duration(magnitude) * time.Hour)
		label = "hour"
	}

	if magnitude > 1 {
		label += "s"
	}

	return models.TimeWindow{
		Start:       start,
		Description: fmt.Sprintf("past %d %s", magnitude, label),
	}, nil
}

// ParseTimeframe splits an expression like "2 days" into magnitude and unit.
// Only the shape is checked here; bounds are checked by Validate.
func ParseTimeframe(expr string) (int, string, error) {
	parts := strings.Fields(expr)
	if len(parts) != 2 {
		return 0, "", invalid(`Invalid format! Please use format like "1 hour" or "2 days"`)
	}

	magnitude, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", invalid(`Invalid number! Please use format like "1 hour" or "2 days"`)
	}

	return magnitude, parts[1], nil
}

// ResolveExpression parses and resolves a free-text timeframe in one step
func ResolveExpression(expr string, limits Limits, now time.Time) (models.TimeWindow, error) {
	magnitude, unit, err := ParseTimeframe(expr)
	if err != nil {
		return models.TimeWindow{}, err
	}
	return Resolve(magnitude, unit, limits, now)
}

// StartOfDay returns UTC midnight of the day containing now
func StartOfDay(now time.Time) time.Time {
	return StartOfDayIn(now, time.UTC)
}

// StartOfDayIn returns midnight in loc of the day containing now, expressed in UTC.
// A nil loc means UTC.
func StartOfDayIn(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).UTC()
}

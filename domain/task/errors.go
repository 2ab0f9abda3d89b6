package task

import (
	"errors"

	"github.com/example/task-reminder-bot/domain/timezone"
)

var (
	// ErrValidation marks input that is rejected before any state change.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a task does not exist or belongs to another owner.
	ErrNotFound = errors.New("task not found")

	// ErrStorage wraps repository failures. Callers may retry later.
	ErrStorage = errors.New("storage failure")

	// ErrDelivery is returned when an outbound message could not be delivered.
	ErrDelivery = errors.New("delivery failed")

	// ErrInvalidTimezone is returned for zone names that are not IANA identifiers.
	ErrInvalidTimezone = timezone.ErrUnknownZone
)

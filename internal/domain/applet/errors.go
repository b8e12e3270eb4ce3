package applet

import (
	"errors"
	"fmt"
)

// Summary is the result-code summary field.
type Summary uint8

const (
	SummaryNotFound        Summary = 4
	SummaryInvalidState    Summary = 5
	SummaryNotSupported    Summary = 6
	SummaryInvalidArgument Summary = 7
)

// Level is the result-code level field.
type Level uint8

const (
	LevelStatus    Level = 25
	LevelPermanent Level = 27
	LevelUsage     Level = 28
)

// ModuleApplet is the result-code module of the applet service.
const ModuleApplet = 51

// Error is a structured result returned by manager operations. Callers
// compare with errors.Is against the package sentinels.
type Error struct {
	Kind        string
	Description uint16
	Summary     Summary
	Level       Level
}

// Code packs the error into a console result code.
func (e *Error) Code() uint32 {
	return uint32(e.Description&0x3FF) |
		uint32(ModuleApplet)<<10 |
		uint32(e.Summary&0x3F)<<21 |
		uint32(e.Level&0x1F)<<27
}

func (e *Error) Error() string {
	return fmt.Sprintf("applet: %s (0x%08X)", e.Kind, e.Code())
}

// Is matches any Error carrying the same result code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code() == t.Code()
}

var (
	ErrParameterPresent  = &Error{Kind: "parameter_present", Description: 2, Summary: SummaryInvalidState, Level: LevelStatus}
	ErrInvalidAppletSlot = &Error{Kind: "invalid_applet_slot", Description: 4, Summary: SummaryInvalidState, Level: LevelStatus}
	ErrAppNotRunning     = &Error{Kind: "app_not_running", Description: 11, Summary: SummaryInvalidState, Level: LevelPermanent}
	ErrNoData            = &Error{Kind: "no_data", Description: 1007, Summary: SummaryInvalidState, Level: LevelStatus}
	ErrNotFound          = &Error{Kind: "not_found", Description: 1018, Summary: SummaryNotFound, Level: LevelStatus}
	ErrAlreadyExists     = &Error{Kind: "already_exists", Description: 1020, Summary: SummaryInvalidState, Level: LevelStatus}
	ErrNotSupported      = &Error{Kind: "not_supported", Description: 1018, Summary: SummaryNotSupported, Level: LevelPermanent}
	ErrInvalidArgument   = &Error{Kind: "invalid_argument", Description: 10, Summary: SummaryInvalidArgument, Level: LevelUsage}
)

// ErrProtocolViolation marks a call made out of the order the service
// boundary guarantees, such as starting an application that was never
// prepared. It is not a console result code.
var ErrProtocolViolation = errors.New("applet: protocol violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocolViolation, fmt.Sprintf(format, args...))
}

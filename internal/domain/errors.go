package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownComponent is matched by UnknownComponentError.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrIncompleteStatus is matched by IncompleteStatusError.
	ErrIncompleteStatus = errors.New("incomplete status map")
	// ErrEmptyStatus is returned when scoring a map with no components.
	ErrEmptyStatus = errors.New("empty status map")
	// ErrDuplicateComponent is returned when a component is declared twice.
	ErrDuplicateComponent = errors.New("duplicate component")
	// ErrAlreadyRecorded is matched by AlreadyRecordedError.
	ErrAlreadyRecorded = errors.New("component already recorded")
)

// UnknownComponentError signals a result recorded under an undeclared name.
type UnknownComponentError struct {
	Component Component
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownComponent, string(e.Component))
}

func (e *UnknownComponentError) Is(target error) bool {
	return target == ErrUnknownComponent
}

// AlreadyRecordedError signals a second result for the same component.
type AlreadyRecordedError struct {
	Component Component
}

func (e *AlreadyRecordedError) Error() string {
	return fmt.Sprintf("%s: %q", ErrAlreadyRecorded, string(e.Component))
}

func (e *AlreadyRecordedError) Is(target error) bool {
	return target == ErrAlreadyRecorded
}

// IncompleteStatusError signals scoring before every component was probed.
type IncompleteStatusError struct {
	Missing []Component
}

func (e *IncompleteStatusError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, c := range e.Missing {
		names = append(names, string(c))
	}
	return fmt.Sprintf("%s: not probed: %s", ErrIncompleteStatus, strings.Join(names, ", "))
}

func (e *IncompleteStatusError) Is(target error) bool {
	return target == ErrIncompleteStatus
}

package domain

import "fmt"

// CorruptDataError reports a registry source that exists but cannot be decoded.
type CorruptDataError struct {
	Source string
	Err    error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt registry data in %s: %v", e.Source, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

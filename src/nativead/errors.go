package nativead

import "fmt"

// Error kinds raised while validating an ad operation. Direct intents
// surface these to the indexer's op log; the payment reconciler
// routes them to the payer instead (see payment.go).

// SchemaError: malformed op payload. Raised before any store access.
type SchemaError struct{ Msg string }

func (e *SchemaError) Error() string { return e.Msg }

func schemaErrorf(format string, args ...interface{}) error {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}

// StateError: the op is not a legal transition for the ad's current
// lifecycle status.
type StateError struct{ Msg string }

func (e *StateError) Error() string { return e.Msg }

func stateErrorf(format string, args ...interface{}) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// ComplianceError: the op violates community ad policy.
type ComplianceError struct{ Msg string }

func (e *ComplianceError) Error() string { return e.Msg }

func complianceErrorf(format string, args ...interface{}) error {
	return &ComplianceError{Msg: fmt.Sprintf(format, args...)}
}

// LookupError: a referenced community, account or post does not exist.
type LookupError struct{ Msg string }

func (e *LookupError) Error() string { return e.Msg }

func LookupErrorf(format string, args ...interface{}) error {
	return &LookupError{Msg: fmt.Sprintf(format, args...)}
}

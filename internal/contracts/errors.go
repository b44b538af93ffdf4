package contracts

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is returned when a persisted model slot is absent.
// Fatal to an inference run: predictions without a valid model are meaningless.
var ErrModelNotFound = errors.New("trained model not found")

// ErrModelCorrupt is returned when a persisted model fails to decode or
// fails its integrity checks.
var ErrModelCorrupt = errors.New("trained model corrupt")

// InsufficientHistoryError is returned when the available series is shorter
// than the longest required lookback or the minimum training sample.
// Fatal to that run; no partial output is produced.
type InsufficientHistoryError struct {
	Op   string // "feature_build", "fit", ...
	Need int
	Have int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s: insufficient history: need %d rows, have %d", e.Op, e.Need, e.Have)
}

// MissingFeatureError is returned by a model's Predict when an expected
// input column is absent from the feature row. Non-fatal to the aggregator
// (the field is marked unavailable) but surfaced in snapshot diagnostics.
type MissingFeatureError struct {
	Model  string
	Column string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("model %s: missing feature column %q", e.Model, e.Column)
}

// IsInsufficientHistory reports whether err is an InsufficientHistoryError.
func IsInsufficientHistory(err error) bool {
	var target *InsufficientHistoryError
	return errors.As(err, &target)
}

package consolidate

import "errors"

// ErrInvalidObservation is returned for ratings entries without an id or name.
var ErrInvalidObservation = errors.New("invalid observation")

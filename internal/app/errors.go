package service

import "errors"

// Sentinel error kinds returned by the Service.
var (
	ErrPassInProgress   = errors.New("a linkage pass is already running")
	ErrLoadRoster       = errors.New("load roster failed")
	ErrListGroups       = errors.New("list reference groups failed")
	ErrLoadObservations = errors.New("load observations failed")
	ErrSaveRoster       = errors.New("save roster failed")
	ErrNoStore          = errors.New("service has no store")
)

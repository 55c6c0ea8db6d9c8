package pgstore

import "errors"

var (
	ErrFailedToParseConfig    = errors.New("pgstore: failed to parse database configuration")
	ErrFailedToOpenConnection = errors.New("pgstore: failed to open database connection")
	ErrHealthcheckFailed      = errors.New("pgstore: healthcheck failed")
	ErrQueryFailed            = errors.New("pgstore: query failed")
)

package results

import "errors"

var (
	// ErrDataInconsistency means a state/year slice does not hold exactly
	// one DEM and one REP row.
	ErrDataInconsistency = errors.New("data inconsistency")
	// ErrOutOfRange means a requested year is not one of the dataset years.
	ErrOutOfRange = errors.New("year out of range")
	// ErrKeyNotFound means a state code is missing from a lookup table.
	ErrKeyNotFound = errors.New("key not found")
)

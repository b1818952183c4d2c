package locator

import "errors"

var (
	ErrEmptyGeometry     = errors.New("locator: no elements to index")
	ErrNotConfigured     = errors.New("locator: no mesh provider configured")
	ErrInvalidGrid       = errors.New("locator: invalid grid configuration")
	ErrDimensionMismatch = errors.New("locator: dimension mismatch")
)

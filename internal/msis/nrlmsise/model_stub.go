//go:build !(cgo && nrlmsise)

package nrlmsise

import "github.com/star/msisgo/internal/msis"

// New reports ErrUnavailable in builds without the C library.
func New() (msis.Model, error) {
	return nil, ErrUnavailable
}

// Package nrlmsise binds msis.Model to the reference NRLMSISE-00 C library.
//
// The cgo binding is compiled only with the "nrlmsise" build tag and needs
// nrlmsise-00.h and libnrlmsise00 on the include and library paths. Without
// the tag, New reports ErrUnavailable.
package nrlmsise

import "errors"

// Name identifies this backend in config and metrics.
const Name = "nrlmsise00"

// ErrUnavailable is returned by New when the binary was built without the
// C library.
var ErrUnavailable = errors.New("nrlmsise: built without the nrlmsise build tag")

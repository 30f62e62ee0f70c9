//go:build !(cgo && nrlmsise)

package nrlmsise

import (
	"errors"
	"testing"
)

func TestNewUnavailable(t *testing.T) {
	m, err := New()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("New() error = %v, want ErrUnavailable", err)
	}
	if m != nil {
		t.Errorf("New() model = %v, want nil", m)
	}
}

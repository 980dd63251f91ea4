package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/dresscode/internal/domain/entity"
)

var (
	ErrPostalCodeNotFound       = errors.New("postal code not found")
	ErrPostalServiceUnavailable = errors.New("postal code service unavailable")
	ErrPostalLookupTimeout      = errors.New("postal code lookup timed out")
	ErrPostalConnection         = errors.New("postal code service unreachable")
)

// PostalCodeGateway resolves a clean 8-digit postal code remotely.
// The returned address is raw; normalization happens in the application layer.
type PostalCodeGateway interface {
	Lookup(ctx context.Context, code string) (*entity.PostalAddress, error)
}

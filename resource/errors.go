package resource

import (
	"errors"

	"github.com/MrEthical07/goSession/internal/apiclient"
)

var (
	// ErrNoSession is returned when the TokenSource has no token.
	ErrNoSession = errors.New("resource: no active session")
	// ErrUnauthorized is returned for a 401 response.
	ErrUnauthorized = errors.New("resource: unauthorized")
	// ErrInvalidPurchase is returned by Purchase.Validate.
	ErrInvalidPurchase = errors.New("resource: invalid purchase")
	// ErrMalformedResponse is returned when a 2xx body has no recognised shape.
	ErrMalformedResponse = errors.New("resource: malformed response")
	// ErrUnavailable wraps transport failures.
	ErrUnavailable = apiclient.ErrUnavailable
)

// HTTPError is a non-2xx response other than 401.
type HTTPError = apiclient.Error

// IsNotFound reports whether err is a 404 from the Resource API.
func IsNotFound(err error) bool {
	return apiclient.IsStatus(err, 404)
}

// IsForbidden reports whether err is a 403 from the Resource API.
func IsForbidden(err error) bool {
	return apiclient.IsStatus(err, 403)
}

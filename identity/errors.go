package identity

import (
	"errors"

	"github.com/MrEthical07/goSession/internal/apiclient"
)

var (
	// ErrUnavailable wraps transport failures talking to the Identity Service.
	ErrUnavailable = apiclient.ErrUnavailable
	// ErrMalformedResponse is returned when a 2xx response lacks required fields.
	ErrMalformedResponse = errors.New("identity: malformed response")
)

// HTTPError is a non-2xx response from the Identity Service.
type HTTPError = apiclient.Error

// IsUnauthorized reports whether err is a 401 from the Identity Service.
func IsUnauthorized(err error) bool {
	return apiclient.IsStatus(err, 401)
}

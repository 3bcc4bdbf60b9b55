package tinxy

import "errors"

// Domain errors for the tinxy package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, tinxy.ErrAuthentication) {
//	    // stop retrying, credentials need refreshing
//	}
var (
	// ErrMissingToken is returned when a client is constructed without an API token.
	ErrMissingToken = errors.New("tinxy: no API token was provided")

	// ErrMissingBaseURL is returned when a client is constructed without a base URL.
	ErrMissingBaseURL = errors.New("tinxy: no API base URL was provided")

	// ErrAuthentication is returned when the vendor rejects the API token.
	// This is terminal for the session: callers must stop automatic retries
	// until credentials are refreshed.
	ErrAuthentication = errors.New("tinxy: authentication rejected")

	// ErrCommunication is returned on network errors, non-2xx responses and
	// timeouts. Transient: callers may retry on the next scheduled cycle.
	ErrCommunication = errors.New("tinxy: communication failed")

	// ErrUnexpected is returned when a response cannot be decoded or the
	// refresh fails for a reason outside the vendor API itself. Treated as
	// transient so polling keeps going rather than becoming stuck.
	ErrUnexpected = errors.New("tinxy: unexpected failure")

	// ErrDeviceNotFound is returned when a logical device key is not known
	// to the registry or has no entry in the current snapshot.
	ErrDeviceNotFound = errors.New("tinxy: device not found")
)

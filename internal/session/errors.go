package session

import "errors"

// ErrMalformedPayload is wrapped by every TransferCodec decode failure.
var ErrMalformedPayload = errors.New("malformed drag payload")

// IsMalformedPayload reports whether err is a payload decode failure.
func IsMalformedPayload(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}

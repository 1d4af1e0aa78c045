package bridge

// notConnectedError signals a command was issued with no device attached,
// for 503 mapping in the HTTP layer.
type notConnectedError struct{}

func (notConnectedError) Error() string { return "printer not connected" }

// ErrNotConnected constructs a notConnectedError.
func ErrNotConnected() error { return notConnectedError{} }

// IsNotConnected reports whether err indicates the device link is down.
func IsNotConnected(err error) bool {
	_, ok := err.(notConnectedError)
	return ok
}

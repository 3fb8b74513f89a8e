package errs

import "errors"

// Sentinels shared by packages that cannot import each other.
var (
	// ErrCommunication marks transport and I/O failures towards a remote system.
	ErrCommunication = errors.New("communication error")
)

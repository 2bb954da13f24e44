// Package error holds sentinel errors shared by the server's handlers.
package error

import "errors"

var ErrTypeAssertMismatch = errors.New("failed to assert type of value")

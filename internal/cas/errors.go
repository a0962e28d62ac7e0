package cas

import (
	dErrors "attestry/pkg/domain-errors"
)

// Sentinels keep store failures consistent across in-memory, filesystem and
// networked implementations. They carry domain codes, so transports can map
// them without knowing which backend produced them.
var (
	ErrNotFound        = dErrors.New(dErrors.CodeNotFound, "content not found")
	ErrUnavailable     = dErrors.New(dErrors.CodeUnavailable, "content store unavailable")
	ErrInvalidAddress  = dErrors.New(dErrors.CodeInvalidInput, "invalid content address")
	ErrAddressMismatch = dErrors.New(dErrors.CodeInvariantViolation, "content does not match address")
)

// IsNotFound reports whether err means the addressed content is absent.
func IsNotFound(err error) bool { return dErrors.HasCode(err, dErrors.CodeNotFound) }

// IsUnavailable reports whether err is a transport or backend fault that may
// succeed on retry.
func IsUnavailable(err error) bool { return dErrors.HasCode(err, dErrors.CodeUnavailable) }

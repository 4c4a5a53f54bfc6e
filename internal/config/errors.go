package config

import "errors"

// ErrInvalidConfig marks an out-of-range threshold. It indicates a programming
// mistake in the caller, which is why it is the one error the pipeline does
// not swallow into the fallback path.
var ErrInvalidConfig = errors.New("invalid configuration")

package imaging

import "fmt"

// DecodeError reports that source bytes could not be turned into a Buffer:
// not a supported raster format, corrupt data, or zero dimensions.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that a Buffer could not be written in the requested
// format, either because the codec does not support it or because the buffer
// exceeds the encoder's limits.
type EncodeError struct {
	Format Format
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("encode %s: %s", e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ConfigError reports a parameter outside its documented range or a missing
// required parameter. It is always raised before any buffer is touched.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

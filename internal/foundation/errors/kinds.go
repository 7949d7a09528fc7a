package errors

import stderrors "errors"

// Error kinds surfaced by the build. Classified errors of the matching
// category satisfy errors.Is against these values.
var (
	ErrConfiguration    = stderrors.New("configuration error")
	ErrMalformedLink    = stderrors.New("malformed link")
	ErrUnknownDirective = stderrors.New("unknown directive")
	ErrFormattingDrift  = stderrors.New("formatting drift")
	ErrIO               = stderrors.New("io error")
)

var kindByCategory = map[ErrorCategory]error{
	CategoryConfig:     ErrConfiguration,
	CategoryLink:       ErrMalformedLink,
	CategoryDirective:  ErrUnknownDirective,
	CategoryFormat:     ErrFormattingDrift,
	CategoryFileSystem: ErrIO,
}

// ConfigurationError reports a missing or invalid setting that disables a feature.
func ConfigurationError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Warning()
}

// MalformedLinkError reports an href that could not be rewritten.
func MalformedLinkError(href string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryLink, "malformed link").
		Warning().
		WithContext("href", href)
}

// FormattingDriftError reports a source file whose formatted text differs from disk.
func FormattingDriftError(path string) *ErrorBuilder {
	return NewError(CategoryFormat, "source rewritten by formatter").
		Info().
		WithContext("path", path)
}

// IOError reports a read, write or copy failure for one document or asset.
func IOError(path string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryFileSystem, "file operation failed").
		WithContext("path", path)
}

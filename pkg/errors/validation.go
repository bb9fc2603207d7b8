package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSourceBytes bounds the size of diagram source accepted from untrusted
// callers (the HTTP API). The CLI reads local files without this limit.
const MaxSourceBytes = 1 << 20

// ValidateSource checks diagram text received over the network.
//
// Empty text is valid (it lays out to an empty canvas). Rejected:
//   - Text larger than [MaxSourceBytes]
//   - Invalid UTF-8
//   - Control characters other than tab, newline and carriage return
func ValidateSource(text string) error {
	if len(text) > MaxSourceBytes {
		return New(ErrCodeInvalidInput, "source too large (max %d bytes)", MaxSourceBytes)
	}

	if !utf8.ValidString(text) {
		return New(ErrCodeInvalidInput, "source is not valid UTF-8")
	}

	for _, r := range text {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source contains invalid control characters")
		}
	}

	return nil
}

// optionKeyRegex matches dotted engine option keys such as
// "elk.spacing.nodeNode" or "elk.layered.spacing.nodeNodeBetweenLayers".
var optionKeyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*(\.[A-Za-z0-9_-]+)*$`)

// ValidateOptionKey validates a single layout option key.
func ValidateOptionKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "option key cannot be empty")
	}

	if len(key) > 128 {
		return New(ErrCodeInvalidInput, "option key too long (max 128 characters)")
	}

	if !optionKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidInput, "invalid option key: %q", key)
	}

	return nil
}

// ValidateOptions validates every key of an option override map and rejects
// values containing line breaks.
func ValidateOptions(opts map[string]string) error {
	for k, v := range opts {
		if err := ValidateOptionKey(k); err != nil {
			return err
		}
		if strings.ContainsAny(v, "\r\n\x00") {
			return New(ErrCodeInvalidInput, "option %q has an invalid value", k)
		}
	}
	return nil
}

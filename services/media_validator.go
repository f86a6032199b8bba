package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"luvlang_server/models"
)

type ValidationCode string

const (
	ValidationOK          ValidationCode = "ok"
	ValidationInvalidType ValidationCode = "invalid_type"
	ValidationTooLarge    ValidationCode = "too_large"
	ValidationEmpty       ValidationCode = "empty"
	ValidationBioTooShort ValidationCode = "bio_too_short"
	ValidationBioTooLong  ValidationCode = "bio_too_long"
)

// ValidationResult is the accept/reject outcome with a user-facing reason.
type ValidationResult struct {
	OK     bool           `json:"ok"`
	Code   ValidationCode `json:"code"`
	Title  string         `json:"title,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// ValidationError carries a rejected ValidationResult through error returns.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Result.Code, e.Result.Reason)
}

// ValidateMedia checks a declared MIME type and byte size against policy.
// The declared type is trusted; content is never sniffed.
func ValidateMedia(policy models.MediaPolicy, contentType string, size int64) ValidationResult {
	if !policy.Allows(contentType) {
		return ValidationResult{
			Code:   ValidationInvalidType,
			Title:  "Invalid File Type",
			Reason: fmt.Sprintf("Please choose a %s file (%s).", policy.Kind, allowedList(policy.AllowedTypes)),
		}
	}
	return ValidateSize(policy, size)
}

// ValidateSize checks only the byte size against policy.
func ValidateSize(policy models.MediaPolicy, size int64) ValidationResult {
	if size <= 0 {
		return ValidationResult{
			Code:   ValidationEmpty,
			Title:  "Empty File",
			Reason: "The selected file is empty.",
		}
	}
	if size > policy.MaxBytes {
		return ValidationResult{
			Code:   ValidationTooLarge,
			Title:  "File Too Large",
			Reason: fmt.Sprintf("Please choose a file smaller than %s.", humanBytes(policy.MaxBytes)),
		}
	}
	return ValidationResult{OK: true, Code: ValidationOK}
}

// ValidateBio enforces the bio length bounds, counted in characters.
func ValidateBio(policy models.Policy, bio string) ValidationResult {
	n := utf8.RuneCountInString(strings.TrimSpace(bio))
	if n < policy.MinBioLength {
		return ValidationResult{
			Code:   ValidationBioTooShort,
			Title:  "Bio Too Short",
			Reason: fmt.Sprintf("Your bio needs at least %d characters (currently %d).", policy.MinBioLength, n),
		}
	}
	if policy.MaxBioLength > 0 && n > policy.MaxBioLength {
		return ValidationResult{
			Code:   ValidationBioTooLong,
			Title:  "Bio Too Long",
			Reason: fmt.Sprintf("Your bio can be at most %d characters (currently %d).", policy.MaxBioLength, n),
		}
	}
	return ValidationResult{OK: true, Code: ValidationOK}
}

func allowedList(types []string) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, strings.ToUpper(strings.TrimPrefix(t[strings.Index(t, "/")+1:], "x-")))
	}
	return strings.Join(names, ", ")
}

func humanBytes(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/mib)
}

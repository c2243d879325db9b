// Package validation screens the free-text fields of API requests before
// they reach the PK/PD engine. Numeric ranges are checked by the engine.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pkpd-api/interfaces"
	"github.com/giygas/pkpd-api/pkpd"
)

// ErrInvalidInput is wrapped by every error returned by the validator
var ErrInvalidInput = errors.New("invalid input")

const (
	minInputLength = 2
	maxInputLength = 80
	maxWords       = 8
	maxRepetition  = 10
)

var (
	// Letters of any script, digits, spaces and the punctuation found in drug
	// and organism labels ("Amoxicillin/Clavulanate 500/125 mg", "S. aureus (MRSA)")
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-\.\+'/(),]+$`)

	// Matched as lowercase substrings
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// InputValidator implements interfaces.InputValidator
type InputValidator struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() interfaces.InputValidator {
	return &InputValidator{}
}

// ValidateInput rejects empty, over-long, dangerous or oddly repeated input
func (v *InputValidator) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%w: input cannot be empty", ErrInvalidInput)
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("%w: input is not valid UTF-8", ErrInvalidInput)
	}

	n := utf8.RuneCountInString(input)
	if n < minInputLength {
		return fmt.Errorf("%w: input too short: minimum %d characters", ErrInvalidInput, minInputLength)
	}
	if n > maxInputLength {
		return fmt.Errorf("%w: input too long: maximum %d characters", ErrInvalidInput, maxInputLength)
	}

	if len(strings.Fields(input)) > maxWords {
		return fmt.Errorf("%w: input too complex: maximum %d words allowed", ErrInvalidInput, maxWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("%w: input contains potentially dangerous content", ErrInvalidInput)
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("%w: input contains invalid characters", ErrInvalidInput)
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("%w: input contains excessive character repetition", ErrInvalidInput)
	}

	return nil
}

// ValidateIdentifier validates a drug, site or organism identifier and names
// the offending field in the error
func (v *InputValidator) ValidateIdentifier(field, value string) error {
	if err := v.ValidateInput(value); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// ValidateMode parses the evaluation mode. An empty mode means simulate.
func (v *InputValidator) ValidateMode(mode string) (pkpd.Mode, error) {
	if mode != "" && utf8.RuneCountInString(mode) > maxInputLength {
		return "", fmt.Errorf("mode: %w: input too long: maximum %d characters", ErrInvalidInput, maxInputLength)
	}
	return pkpd.ParseMode(mode)
}

// hasExcessiveRepetition reports a rune repeated more than maxRepetition
// times in a row
func hasExcessiveRepetition(input string) bool {
	var (
		prev rune
		run  int
	)
	for _, r := range input {
		if r == prev {
			run++
			if run > maxRepetition {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

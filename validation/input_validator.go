// Package validation checks user supplied query strings before they reach the resolver
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/rxu-api/interfaces"
)

const (
	MinQueryLength = 2
	MaxQueryLength = 100
	MaxQueryWords  = 8

	// A run of more identical characters than this is rejected
	maxRepeat = 10
)

var (
	ErrEmptyInput   = errors.New("input cannot be empty")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	// Letters of any script, digits, spaces and the punctuation found in drug names:
	// "5-fluorouracil", "co-trimoxazole", "insulin (human)", "vitamin b12", "st. john's wort", "a/b"
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\+',()/]+$`)

	hasAlnum = regexp.MustCompile(`[\p{L}\p{N}]`)

	// Substrings never found in a drug name but common in probing traffic
	dangerousPatterns = []string{
		"<script", "javascript:", "vbscript:", "onerror=", "onload=",
		"' or ", "union select", "drop table", "--", "/*", "*/",
		"../", "..\\", "%2e%2e", "file://",
		"${", "$(", "`",
	}
)

type InputValidatorImpl struct{}

var _ interfaces.InputValidator = (*InputValidatorImpl)(nil)

func NewInputValidator() *InputValidatorImpl {
	return &InputValidatorImpl{}
}

// ValidateInput validates a free-text drug query
func (v *InputValidatorImpl) ValidateInput(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}

	if !utf8.ValidString(input) || strings.ContainsRune(input, 0) {
		return fmt.Errorf("%w: not valid text", ErrInvalidInput)
	}

	n := utf8.RuneCountInString(input)
	if n < MinQueryLength {
		return fmt.Errorf("%w: minimum %d characters", ErrInvalidInput, MinQueryLength)
	}
	if n > MaxQueryLength {
		return fmt.Errorf("%w: maximum %d characters", ErrInvalidInput, MaxQueryLength)
	}

	if len(strings.Fields(input)) > MaxQueryWords {
		return fmt.Errorf("%w: maximum %d words allowed", ErrInvalidInput, MaxQueryWords)
	}

	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("%w: potentially dangerous content", ErrInvalidInput)
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("%w: only letters, numbers, spaces and - . + ' , ( ) / are allowed", ErrInvalidInput)
	}

	if !hasAlnum.MatchString(input) {
		return fmt.Errorf("%w: must contain a letter or a digit", ErrInvalidInput)
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("%w: excessive character repetition", ErrInvalidInput)
	}

	return nil
}

func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > maxRepeat {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

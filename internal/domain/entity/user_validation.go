package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oksasatya/dresscode/pkg/validation"
)

var ErrInvalidUser = errors.New("invalid user")

const (
	MinAge = 13
	MaxAge = 120
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	hasLetter       = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// ValidationResult is the outcome of a single field check.
// Conflict marks a uniqueness failure, which callers answer with suggestions.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	Conflict bool   `json:"conflict,omitempty"`
}

func ok(msg string) ValidationResult    { return ValidationResult{Valid: true, Message: msg} }
func fail(msg string) ValidationResult  { return ValidationResult{Message: msg} }
func taken(msg string) ValidationResult { return ValidationResult{Message: msg, Conflict: true} }

// ValidationError aggregates every failed record-level check, in order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid user: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidUser }

// ValidUsernameFormat reports whether name matches the public username format.
func ValidUsernameFormat(name string) bool {
	return usernamePattern.MatchString(name)
}

// ValidateUsernameUnique checks format and case-insensitive uniqueness of
// candidate among existing, ignoring the record with selfID.
func ValidateUsernameUnique(existing []*User, candidate, selfID string) ValidationResult {
	if candidate == "" {
		return fail("username is required")
	}
	if !ValidUsernameFormat(candidate) {
		return fail("username must be 3-20 characters (letters, numbers and underscore only)")
	}
	for _, u := range existing {
		if u.ID != selfID && strings.EqualFold(u.Username, candidate) {
			return taken("this username is already taken")
		}
	}
	return ok("username available")
}

// ValidateEmailUnique is the email counterpart of ValidateUsernameUnique.
func ValidateEmailUnique(existing []*User, email, selfID string) ValidationResult {
	if r := ValidateEmail(email); !r.Valid {
		return r
	}
	for _, u := range existing {
		if u.ID != selfID && strings.EqualFold(u.Email, email) {
			return taken("this email is already registered")
		}
	}
	return ok("email available")
}

func ValidateEmail(email string) ValidationResult {
	if email == "" {
		return fail("email is required")
	}
	if len(email) > 254 {
		return fail("email too long (maximum 254 characters)")
	}
	if local, _, found := strings.Cut(email, "@"); found && len(local) > 64 {
		return fail("email local part too long (maximum 64 characters)")
	}
	if !validation.IsEmail(email) {
		return fail("invalid email format")
	}
	return ok("valid email")
}

func ValidatePassword(password string) ValidationResult {
	switch {
	case password == "":
		return fail("password is required")
	case len(password) < 8:
		return fail("password must be at least 8 characters")
	case len(password) > 50:
		return fail("password too long (maximum 50 characters)")
	case !hasLetter.MatchString(password) || !hasDigit.MatchString(password):
		return fail("password must contain at least one letter and one number")
	}
	return ok("valid password")
}

func ValidateFullName(name string) ValidationResult {
	trimmed := strings.TrimSpace(name)
	switch {
	case name == "":
		return fail("full name is required")
	case len([]rune(trimmed)) < 2:
		return fail("name must be at least 2 characters")
	case len([]rune(trimmed)) > 100:
		return fail("name too long (maximum 100 characters)")
	case !strings.Contains(trimmed, " "):
		return fail("enter first and last name")
	}
	return ok("valid name")
}

// ValidateBirthDate checks presence, format and the 13..120 age window at now.
func ValidateBirthDate(date string, now time.Time) ValidationResult {
	if strings.TrimSpace(date) == "" {
		return fail("birth date is required")
	}
	birth, parsed := ParseBirthDate(date)
	if !parsed {
		return fail("invalid birth date")
	}
	age := completedYears(birth, now)
	if age < MinAge {
		return fail(fmt.Sprintf("user must be at least %d years old", MinAge))
	}
	if age > MaxAge {
		return fail("invalid birth date")
	}
	return ok("valid birth date")
}

// CleanPostalCode strips everything but digits.
func CleanPostalCode(code string) string {
	return nonDigits.ReplaceAllString(code, "")
}

// IsSentinelPostalCode reports the ten all-identical-digit codes that never exist.
func IsSentinelPostalCode(clean string) bool {
	return len(clean) == 8 && strings.Count(clean, clean[:1]) == 8
}

func ValidatePostalCode(code string) ValidationResult {
	if code == "" {
		return fail("postal code is required")
	}
	clean := CleanPostalCode(code)
	if len(clean) != 8 {
		return fail("postal code must have 8 digits")
	}
	if IsSentinelPostalCode(clean) {
		return fail("invalid postal code")
	}
	return ok("valid postal code")
}

func ValidateBrands(brands []string) ValidationResult {
	if len(brands) > MaxFavoriteBrands {
		return fail(fmt.Sprintf("maximum of %d brands allowed (%d selected)", MaxFavoriteBrands, len(brands)))
	}
	seen := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		key := strings.ToLower(strings.TrimSpace(b))
		if _, dup := seen[key]; dup {
			return fail(fmt.Sprintf("brand %q selected more than once", b))
		}
		seen[key] = struct{}{}
	}
	return ok(fmt.Sprintf("%d/%d brands selected", len(brands), MaxFavoriteBrands))
}

// ValidateCredentials accepts a fresh plaintext password, or a stored hash
// when the record has already been through the repository.
func (u *User) ValidateCredentials() ValidationResult {
	if u.Password == "" && u.PasswordHash != "" {
		return ok("password on file")
	}
	return ValidatePassword(u.Password)
}

// ValidateAllAt returns the ordered list of failure messages; empty means valid.
func (u *User) ValidateAllAt(now time.Time) []string {
	checks := []ValidationResult{
		ValidateFullName(u.FullName),
		ValidateEmail(u.Email),
		u.ValidateCredentials(),
		ValidateBirthDate(u.BirthDate, now),
		ValidatePostalCode(u.Address.PostalCode),
		ValidateBrands(u.FavoriteBrands),
	}
	var msgs []string
	for _, c := range checks {
		if !c.Valid {
			msgs = append(msgs, c.Message)
		}
	}
	if !u.AcceptedTerms {
		msgs = append(msgs, "you must accept the terms of use")
	}
	return msgs
}

func (u *User) ValidateAll() []string {
	return u.ValidateAllAt(time.Now())
}

// Validate wraps ValidateAll into a *ValidationError.
func (u *User) Validate() error {
	if msgs := u.ValidateAll(); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
)

// bcrypt ignores everything past 72 bytes and newer versions reject it.
const maxPasswordBytes = 72

// UserAttributes are the user fields a password must not resemble.
type UserAttributes struct {
	Email     string
	FirstName string
	LastName  string
}

// Validator checks one password rule and returns a human readable reason on
// failure.
type Validator interface {
	Validate(password string, user UserAttributes) error
}

type ValidatorFunc func(password string, user UserAttributes) error

func (f ValidatorFunc) Validate(password string, user UserAttributes) error {
	return f(password, user)
}

// Policy runs every validator and reports all failures together.
type Policy struct {
	validators []Validator
}

func NewPolicy(validators ...Validator) *Policy {
	return &Policy{validators: validators}
}

// DefaultPolicy: minimum length, bcrypt byte limit, not entirely numeric, not a
// common password, not too similar to the user's attributes.
func DefaultPolicy(minLength int) *Policy {
	return NewPolicy(
		MinLength(minLength),
		MaxBytes(maxPasswordBytes),
		NotNumeric(),
		NotCommon(commonPasswords),
		NotSimilar(0.7),
	)
}

func (p *Policy) Validate(password string, user UserAttributes) error {
	verr := &pkgerrors.ValidationError{}
	for _, v := range p.validators {
		if err := v.Validate(password, user); err != nil {
			verr.Add("password", err.Error())
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func MinLength(n int) Validator {
	return ValidatorFunc(func(password string, _ UserAttributes) error {
		if len([]rune(password)) < n {
			return fmt.Errorf("password is too short, it must contain at least %d characters", n)
		}
		return nil
	})
}

func MaxBytes(n int) Validator {
	return ValidatorFunc(func(password string, _ UserAttributes) error {
		if len(password) > n {
			return fmt.Errorf("password is too long, it must be at most %d bytes", n)
		}
		return nil
	})
}

func NotNumeric() Validator {
	return ValidatorFunc(func(password string, _ UserAttributes) error {
		if password == "" {
			return nil
		}
		for _, r := range password {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
		return errors.New("password is entirely numeric")
	})
}

func NotCommon(list []string) Validator {
	set := make(map[string]struct{}, len(list))
	for _, p := range list {
		set[strings.ToLower(p)] = struct{}{}
	}
	return ValidatorFunc(func(password string, _ UserAttributes) error {
		if _, ok := set[strings.ToLower(strings.TrimSpace(password))]; ok {
			return errors.New("password is too common")
		}
		return nil
	})
}

// NotSimilar rejects passwords whose similarity ratio to any user attribute
// (any word of it, or the local part of an email) reaches maxSimilarity.
func NotSimilar(maxSimilarity float64) Validator {
	return ValidatorFunc(func(password string, user UserAttributes) error {
		pw := strings.ToLower(password)
		attrs := map[string]string{
			"email":      user.Email,
			"first name": user.FirstName,
			"last name":  user.LastName,
		}
		for name, value := range attrs {
			value = strings.ToLower(value)
			if value == "" {
				continue
			}
			parts := append(strings.FieldsFunc(value, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			}), value)
			if at := strings.IndexByte(value, '@'); at > 0 {
				parts = append(parts, value[:at])
			}
			for _, part := range parts {
				if similarity(pw, part) >= maxSimilarity {
					return fmt.Errorf("password is too similar to the %s", name)
				}
			}
		}
		return nil
	})
}

// similarity is 2*LCS/(len(a)+len(b)) over runes, in [0, 1].
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}

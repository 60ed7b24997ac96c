package csvval

import (
	"regexp"
	"strings"
	"time"
)

// Gender is a three-valued type: blank and unrecognized source values both map
// to GenderInvalid, which is deliberately distinct from "absent" so the rule
// engine can fail either without conflating them.
type Gender int

const (
	GenderInvalid Gender = iota
	GenderFemale
	GenderMale
)

// ParseGender matches the localized labels used by the upstream files,
// case-insensitively. Anything else is invalid.
func ParseGender(value string) Gender {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "FEMININO":
		return GenderFemale
	case "MASCULINO":
		return GenderMale
	default:
		return GenderInvalid
	}
}

// ContactRecord is one data row of an import file, mapped by header name.
// Records live only for the duration of their own rule evaluation.
type ContactRecord struct {
	FirstName  string
	LastName   string
	Email      string
	NationalID string
	Phone      string
	Gender     Gender
	Birthday   *time.Time
}

var nonDigitRe = regexp.MustCompile(`\D`)

// NormalizePhone strips everything but digits and prepends the country code
// "55" when it is not already there. Only raw-blank input stays blank; a
// present field with no digits normalizes to the bare country code so the
// length rule still sees it.
func NormalizePhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if strings.HasPrefix(digits, "55") {
		return digits
	}
	return "55" + digits
}

var birthdayShapeRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ParseBirthday parses a dd/mm/yyyy date. Blank or unparseable input returns
// nil, which the birthday rule treats as invalid.
func ParseBirthday(value string) *time.Time {
	value = strings.TrimSpace(value)
	if !birthdayShapeRe.MatchString(value) {
		return nil
	}
	parsed, err := time.Parse("02/01/2006", value)
	if err != nil {
		return nil
	}
	return &parsed
}

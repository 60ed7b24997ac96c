// Package csvval validates the `;`-delimited contact files this worker
// ingests. It parses the payload once, applies every field rule to every data
// row, and reports all defects in a single pass instead of stopping at the
// first bad row.
package csvval

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

const headerMissingMessage = "csv file is empty or missing headers"

// Outcome aggregates the result of validating one file. OK is true only when
// the header parsed and no row produced an error.
type Outcome struct {
	OK        bool
	RowErrors []string
	Message   string
}

// Validator applies the contact field rules to a raw payload.
type Validator struct {
	logger *slog.Logger
}

// New constructs a Validator.
func New(logger *slog.Logger) *Validator {
	return &Validator{logger: logger.With(slog.String("component", "csvval"))}
}

var (
	nameRe       = regexp.MustCompile(`^[\p{L}]+$`)
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nationalIDRe = regexp.MustCompile(`^\d{11}$`)
	phoneRe      = regexp.MustCompile(`^\d{10,11}$`)
)

// Validate parses the payload and evaluates all rules. Structural parse faults
// (corrupt quoting, broken encoding) never propagate; they collapse into a
// single aggregate failure message.
func (v *Validator) Validate(data []byte) Outcome {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil || len(header) == 0 {
		v.logger.Error("csv file is empty or missing headers")
		return Outcome{Message: headerMissingMessage}
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rowErrors []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			v.logger.Error("csv parsing aborted", slog.Any("error", err))
			return Outcome{Message: fmt.Sprintf("error during validation: %v", err)}
		}
		// FieldPos reports the physical line of the record, so row numbers
		// stay aligned with the file even when the parser skips blank lines.
		// The header occupies line 1, so the first data row reports as row 2.
		line, _ := reader.FieldPos(0)

		contact := mapContact(columns, record)
		errs := validateContact(contact)
		if len(errs) > 0 {
			joined := strings.Join(errs, "; ")
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", line, joined))
			v.logger.Warn("validation failed", slog.Int("row", line), slog.String("errors", joined))
		}
	}

	if len(rowErrors) > 0 {
		message := strings.Join(rowErrors, " | ")
		v.logger.Error("file rejected", slog.String("errors", message))
		return Outcome{RowErrors: rowErrors, Message: message}
	}
	return Outcome{OK: true}
}

func mapContact(columns map[string]int, record []string) ContactRecord {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	return ContactRecord{
		FirstName:  field("firstname"),
		LastName:   field("lastname"),
		Email:      field("email"),
		NationalID: field("cpf"),
		Phone:      NormalizePhone(field("phone")),
		Gender:     ParseGender(field("gender")),
		Birthday:   ParseBirthday(field("birthday")),
	}
}

func validateContact(c ContactRecord) []string {
	var errs []string
	errs = append(errs, validateName(c.FirstName, "first name")...)
	errs = append(errs, validateName(c.LastName, "last name")...)
	errs = append(errs, validateEmail(c.Email)...)
	errs = append(errs, validateNationalID(c.NationalID)...)
	errs = append(errs, validatePhone(c.Phone)...)
	errs = append(errs, validateGender(c.Gender)...)
	errs = append(errs, validateBirthday(c.Birthday)...)
	return errs
}

func validateName(value, field string) []string {
	if strings.TrimSpace(value) != "" && !nameRe.MatchString(value) {
		return []string{fmt.Sprintf("%s must contain only letters", field)}
	}
	return nil
}

func validateEmail(email string) []string {
	if strings.TrimSpace(email) != "" && !emailRe.MatchString(email) {
		return []string{"email must be in a valid format"}
	}
	return nil
}

func validateNationalID(id string) []string {
	if strings.TrimSpace(id) != "" && !nationalIDRe.MatchString(id) {
		return []string{"national id must contain only digits and have exactly 11 of them"}
	}
	return nil
}

func validatePhone(phone string) []string {
	if phone == "" {
		return nil
	}
	// NormalizePhone guarantees the country code, so the local part is
	// everything after "55".
	local := strings.TrimPrefix(phone, "55")
	if !phoneRe.MatchString(local) {
		return []string{"phone must have 10 or 11 digits including the area code (after country code 55)"}
	}
	return nil
}

func validateGender(gender Gender) []string {
	if gender != GenderFemale && gender != GenderMale {
		return []string{"gender must be 'FEMININO' or 'MASCULINO'"}
	}
	return nil
}

func validateBirthday(birthday *time.Time) []string {
	if birthday == nil {
		return []string{"birthday must be a valid dd/mm/yyyy date"}
	}
	return nil
}

// Package validate holds the form field checks shared by the client handlers
// and the spreadsheet importer. Every predicate is total over its input.
package validate

import (
	"regexp"
	"sort"
	"strings"
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe      = regexp.MustCompile(`^(?:(?:\+|00)33[\s.-]?|0)[1-9](?:[\s.-]?\d{2}){4}$`)
	pdlRe        = regexp.MustCompile(`^\d{14}$`)
	postalCodeRe = regexp.MustCompile(`^\d{5}$`)
)

func Email(s string) bool { return emailRe.MatchString(s) }

// Phone accepts French landline and mobile numbers in national (0X) or
// international (+33, 0033) form, digit pairs optionally separated by a
// space, dot or hyphen.
func Phone(s string) bool { return phoneRe.MatchString(s) }

// PDL checks a delivery point identifier: 14 digits, no separators.
func PDL(s string) bool { return pdlRe.MatchString(s) }

func PostalCode(s string) bool { return postalCodeRe.MatchString(s) }

// FieldErrors maps a form field to a user facing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

type ClientFields struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	PDL        string
}

// Client applies the prospect form rules. The PDL is optional and only
// checked when present. Returns nil or a FieldErrors.
func Client(f ClientFields) error {
	errs := FieldErrors{}
	required := func(field, value, msg string) bool {
		if strings.TrimSpace(value) == "" {
			errs[field] = msg
			return false
		}
		return true
	}

	required("first_name", f.FirstName, "Le prénom est requis")
	required("last_name", f.LastName, "Le nom est requis")
	if required("email", f.Email, "L'email est requis") && !Email(f.Email) {
		errs["email"] = "Format d'email invalide"
	}
	if required("phone", f.Phone, "Le téléphone est requis") && !Phone(f.Phone) {
		errs["phone"] = "Format de téléphone invalide"
	}
	required("address", f.Address, "L'adresse est requise")
	required("city", f.City, "La ville est requise")
	if required("postal_code", f.PostalCode, "Le code postal est requis") && !PostalCode(f.PostalCode) {
		errs["postal_code"] = "Le code postal doit contenir 5 chiffres"
	}
	if f.PDL != "" && !PDL(f.PDL) {
		errs["pdl"] = "Le PDL doit contenir exactement 14 chiffres"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

package validation

import "github.com/digitalocean/registration-wizard/pkg/models"

// ErrorMap maps a field name to its validation message. An absent key or an
// empty message both mean the field has no error.
type ErrorMap map[string]string

// Merge overwrites the receiver's entries with those of other and leaves
// every other key untouched.
func (m ErrorMap) Merge(other ErrorMap) {
	for field, message := range other {
		m[field] = message
	}
}

// Has reports whether field currently carries a non-empty message
func (m ErrorMap) Has(field string) bool {
	return m[field] != ""
}

// Clone returns an independent copy of the map
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for field, message := range m {
		out[field] = message
	}
	return out
}

var stepFields = map[int][]string{
	1: {models.FieldEmailID, models.FieldPassword},
	2: {models.FieldFirstName, models.FieldLastName, models.FieldAddress},
	3: {models.FieldCountryCode, models.FieldPhoneNumber, models.FieldAcceptTermsAndCondition},
}

// StepFields returns the fields collected on the given step, in display order
func StepFields(step int) []string {
	fields := stepFields[step]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// ValidateStep runs every validator of the step, without stopping at the
// first failure, and returns an entry for each of the step's fields. Valid
// fields get an empty message so merging clears their previous error.
func ValidateStep(step int, form models.FormData) (bool, ErrorMap) {
	errs := ErrorMap{}
	valid := true

	for _, field := range stepFields[step] {
		res := ValidateField(field, form)
		errs[field] = res.Message
		if !res.Valid {
			valid = false
		}
	}

	return valid, errs
}

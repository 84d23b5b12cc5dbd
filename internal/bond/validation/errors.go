package validation

import (
	"sort"
	"strings"
)

// MsgRequired is reported for fields absent from the request.
const MsgRequired = "this field is required"

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// AddErr records err under field when it is non-nil.
func (fe FieldErrors) AddErr(field string, err error) {
	if err != nil {
		fe.Add(field, err.Error())
	}
}

// Err returns fe as an error, or nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], "; "))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalidValue
}

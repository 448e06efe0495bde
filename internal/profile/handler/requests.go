package handler

import (
	"bytes"
	"encoding/json"
	"strconv"

	"egresados/internal/profile/models"
	dErrors "egresados/pkg/domain-errors"
)

// UpdateProfileRequest is a partial profile keyed by column name.
// Keys that are not tracked profile fields are ignored.
type UpdateProfileRequest struct {
	fields map[string]json.RawMessage
	patch  models.Patch
}

func (r *UpdateProfileRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.fields)
}

// Validate converts the raw body into a Patch. Strings pass through, null clears,
// booleans and numbers are rendered as text.
func (r *UpdateProfileRequest) Validate() error {
	r.patch = make(models.Patch, len(r.fields))
	for name, raw := range r.fields {
		if _, ok := models.FieldByName(name); !ok {
			continue
		}
		value, err := scalarText(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, name+" must be a string, number, boolean or null")
		}
		r.patch[name] = value
	}
	return nil
}

func (r *UpdateProfileRequest) Patch() models.Patch { return r.patch }

func scalarText(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case bool:
		s = strconv.FormatBool(t)
	case json.Number:
		s = t.String()
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "unsupported value")
	}
	return &s, nil
}

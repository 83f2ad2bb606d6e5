package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Structured fields are stored as JSON text in a flat column.

// Value implements driver.Valuer.
func (s SkillSet) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return marshalColumn(s)
}

// Scan implements sql.Scanner.
func (s *SkillSet) Scan(src any) error {
	out := SkillSet{}
	if err := unmarshalColumn(src, &out); err != nil {
		return fmt.Errorf("scan skills: %w", err)
	}
	*s = out
	return nil
}

// Value implements driver.Valuer.
func (e Experience) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return marshalColumn(e)
}

// Scan implements sql.Scanner.
func (e *Experience) Scan(src any) error {
	out := Experience{}
	if err := unmarshalColumn(src, &out); err != nil {
		return fmt.Errorf("scan experience: %w", err)
	}
	*e = out
	return nil
}

// Value implements driver.Valuer.
func (r RequiredSkills) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return marshalColumn(r)
}

// Scan implements sql.Scanner.
func (r *RequiredSkills) Scan(src any) error {
	out := RequiredSkills{}
	if err := unmarshalColumn(src, &out); err != nil {
		return fmt.Errorf("scan required skills: %w", err)
	}
	*r = out
	return nil
}

func marshalColumn(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// unmarshalColumn leaves dst untouched for NULL or empty columns.
func unmarshalColumn(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

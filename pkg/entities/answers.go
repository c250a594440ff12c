package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Answer is a single question and its submitted answer.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Answers is the ordered set of answers submitted with an application or
// suggestion ticket. The order of submission is preserved.
type Answers []Answer

// Value implements the driver.Valuer interface, storing the answers as JSON.
func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface.
func (a *Answers) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("invalid scan, type %T not supported for %T", src, a)
	}

	return json.Unmarshal(raw, a)
}

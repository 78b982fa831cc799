package models

import (
	"encoding/json"
	"strings"
)

// Checkbox is a boolean form field. HTML checkboxes post "on" when ticked and
// nothing otherwise; JSON clients may send a bool or the same strings.
type Checkbox bool

// UnmarshalParam implements gin's binding.BindUnmarshaler for form and query binding.
func (c *Checkbox) UnmarshalParam(param string) error {
	*c = Checkbox(checked(param))
	return nil
}

// UnmarshalJSON accepts true/false as well as "on", "true" and "1".
func (c *Checkbox) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Checkbox(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Checkbox(checked(s))
	return nil
}

func checked(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

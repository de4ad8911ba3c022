package models

import "encoding/json"

// Value is an extracted field. It is either found (carrying a string) or
// not found, which serialises as JSON null.
type Value struct {
	text  string
	found bool
}

// Found returns a found Value.
func Found(s string) Value {
	return Value{text: s, found: true}
}

// NotFound returns a Value marking a field that could not be extracted.
func NotFound() Value {
	return Value{}
}

// Ok reports whether the value was found.
func (v Value) Ok() bool { return v.found }

// String returns the text, or "" when not found.
func (v Value) String() string { return v.text }

// Ptr returns a pointer to v, used for optional fields.
func (v Value) Ptr() *Value { return &v }

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.found {
		return []byte("null"), nil
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NotFound()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Found(s)
	return nil
}

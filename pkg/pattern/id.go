package pattern

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// ID identifies a row or a pattern. Pattern files use both numbers
// (1, 2.5) and strings ("A.1"), so an ID is one or the other.
//
// IDs are totally ordered: numbers sort before strings, numbers compare
// numerically and strings lexicographically. The layout engine relies on
// this order to pick its seed row.
type ID struct {
	str   string
	num   float64
	isNum bool
}

// NumberID returns a numeric ID.
func NumberID(n float64) ID { return ID{num: n, isNum: true} }

// StringID returns a string ID.
func StringID(s string) ID { return ID{str: s} }

// IDFromValue converts a specification value to an ID. Lists and maps are
// not valid ids.
func IDFromValue(v spec.Value) (ID, error) {
	if n, ok := v.AsNumber(); ok {
		return NumberID(n), nil
	}
	if s, ok := v.AsString(); ok {
		return StringID(s), nil
	}
	return ID{}, fmt.Errorf("id must be a number or a string, got %s", v.Kind())
}

// IsNumber reports whether the ID is numeric.
func (id ID) IsNumber() bool { return id.isNum }

// Value converts the ID back to a specification value.
func (id ID) Value() spec.Value {
	if id.isNum {
		return spec.Number(id.num)
	}
	return spec.String(id.str)
}

// String returns the display form of the ID.
func (id ID) String() string {
	if id.isNum {
		return strconv.FormatFloat(id.num, 'f', -1, 64)
	}
	return id.str
}

// Compare orders two IDs: numbers first, then strings.
func (id ID) Compare(other ID) int {
	switch {
	case id.isNum && other.isNum:
		return cmp.Compare(id.num, other.num)
	case id.isNum:
		return -1
	case other.isNum:
		return 1
	default:
		return cmp.Compare(id.str, other.str)
	}
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isNum {
		return json.Marshal(id.num)
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	var v spec.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := IDFromValue(v)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (id ID) MarshalYAML() (any, error) {
	return id.Value().Any(), nil
}

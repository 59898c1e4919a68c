// Package jsonnum decodes integer request fields that clients send either as
// JSON numbers or as numeric strings ("0", "1560298281").
package jsonnum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Int is an optional int64. Set is false when the field was absent or null,
// which keeps an explicit 0 distinguishable from a missing value.
type Int struct {
	Value int64
	Set   bool
}

// Of returns a set Int.
func Of(v int64) Int { return Int{Value: v, Set: true} }

func (i *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = Int{}
		return nil
	}

	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*i = Int{}
			return nil
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Accept integral floats such as 1560298281.0.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("jsonnum: %q is not an integer", s)
		}
		v = int64(f)
	}
	*i = Int{Value: v, Set: true}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(i.Value, 10)), nil
}

func (i Int) String() string {
	if !i.Set {
		return "<unset>"
	}
	return strconv.FormatInt(i.Value, 10)
}

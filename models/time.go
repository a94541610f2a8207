package models

import (
	"fmt"
	"strings"
	"time"
)

// APITimeLayout is the fixed ISO-8601 UTC format the SimpleNote API uses
// for note timestamps.
const APITimeLayout = "2006-01-02T15:04:05Z"

// APITime wraps time.Time with JSON (un)marshalling in the API's fixed
// timestamp format. Parsing also accepts fractional seconds, which some
// server deployments emit.
type APITime time.Time

// Time returns the wrapped time.Time value.
func (t APITime) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON implements json.Marshaler using [APITimeLayout].
func (t APITime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(APITimeLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Empty and null values decode
// to the zero time.
func (t *APITime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*t = APITime(time.Time{})
		return nil
	}

	for _, layout := range []string{APITimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = APITime(parsed.UTC())
			return nil
		}
	}

	return fmt.Errorf("invalid api timestamp %q", s)
}

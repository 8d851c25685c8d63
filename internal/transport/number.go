package transport

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LenientNumber decodes a JSON number, a string or null into its trimmed
// text form. Browser scripts often send form values as strings, so the
// caller decides whether the text is usable.
type LenientNumber string

func (n *LenientNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = LenientNumber(strings.TrimSpace(s))
		return nil
	}
	*n = LenientNumber(data)
	return nil
}

func (n LenientNumber) String() string {
	return string(n)
}

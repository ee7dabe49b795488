package generator

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON object in response")

// decodeJSON unmarshals the JSON object of a model response into v. The
// response may be the bare object, the object inside a ```json fence, or
// the object surrounded by prose. The decoder reads exactly one value, so
// fences inside string fields do not end the payload early.
func decodeJSON(output string, v any) error {
	output = strings.TrimSpace(output)
	if output == "" {
		return errNoJSON
	}
	if json.Unmarshal([]byte(output), v) == nil {
		return nil
	}

	from := 0
	if i := strings.Index(output, "```json"); i != -1 {
		from = i + len("```json")
	}
	lo := strings.Index(output[from:], "{")
	if lo == -1 {
		return errNoJSON
	}
	return json.NewDecoder(strings.NewReader(output[from+lo:])).Decode(v)
}

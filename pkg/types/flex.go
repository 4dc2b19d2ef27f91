package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString unmarshals from a JSON string or number. Upstream sources are
// inconsistent about identifier fields, some quote them and some do not.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil {
		*f = FlexString(asString)
		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(trimmed, &asNumber); err == nil {
		*f = FlexString(asNumber.String())
		return nil
	}

	*f = ""
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// FlexInt unmarshals from a JSON number or a numeric string. Malformed
// values decode to zero rather than failing the payload.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}

	var asInt int64
	if err := json.Unmarshal(trimmed, &asInt); err == nil {
		*f = FlexInt(asInt)
		return nil
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if parsed, err := strconv.ParseInt(asString, 10, 64); err == nil {
			*f = FlexInt(parsed)
			return nil
		}
		if parsed, err := strconv.ParseFloat(asString, 64); err == nil {
			*f = FlexInt(int64(parsed))
			return nil
		}
	}

	var asFloat float64
	if err := json.Unmarshal(trimmed, &asFloat); err == nil {
		*f = FlexInt(int64(asFloat))
		return nil
	}

	*f = 0
	return nil
}

func (f FlexInt) Int() int {
	return int(f)
}

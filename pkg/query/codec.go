package query

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
)

// Encode renders value as a query-parameter string under the given
// encoding. Scalars use their natural text form regardless of encoding;
// the encoding decides how slices and structs are carried.
func Encode[T any](value T, enc Encoding) string {
	switch v := any(value).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		if enc == EncodingComma {
			return strings.Join(v, ",")
		}
	}

	b, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	if enc == EncodingJSON {
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return string(b)
}

// Decode parses raw back into T under the given encoding. Unparseable input
// yields the fallback; URLs are user-editable, so garbage is expected, not
// an error.
func Decode[T any](raw string, fallback T, enc Encoding) T {
	switch any(fallback).(type) {
	case string:
		return any(raw).(T)
	case int:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return fallback
		}
		return any(i).(T)
	case int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fallback
		}
		return any(i).(T)
	case float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fallback
		}
		return any(f).(T)
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fallback
		}
		return any(b).(T)
	case []string:
		if enc == EncodingComma {
			if raw == "" {
				return fallback
			}
			return any(strings.Split(raw, ",")).(T)
		}
	}

	data := []byte(raw)
	if enc == EncodingJSON {
		decoded, err := base64.RawURLEncoding.DecodeString(raw)
		if err != nil {
			return fallback
		}
		data = decoded
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return fallback
	}
	return out
}

// EncodeFunc returns an Encode closure bound to enc, in the shape the query
// hooks accept as a custom serializer.
func EncodeFunc[T any](enc Encoding) func(T) string {
	return func(v T) string {
		return Encode(v, enc)
	}
}

// DecodeFunc returns a Decode closure bound to enc and fallback.
func DecodeFunc[T any](fallback T, enc Encoding) func(string) T {
	return func(raw string) T {
		return Decode(raw, fallback, enc)
	}
}

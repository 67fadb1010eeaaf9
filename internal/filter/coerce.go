package filter

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// isNil reports absent values, including typed nil pointers from optional fields.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}

func coerce(field Field, name string, raw any) (any, error) {
	raw = deref(raw)
	switch field.Kind {
	case KindString:
		s, ok := asString(raw)
		if !ok {
			return nil, apperrors.NewInvalidFilter(name, "expected text")
		}
		return s, nil
	case KindEnum:
		s, ok := asString(raw)
		if !ok || !contains(field.Values, s) {
			return nil, apperrors.NewInvalidFilter(name, fmt.Sprintf("expected one of %s", strings.Join(field.Values, ", ")))
		}
		return s, nil
	case KindDecimal:
		return coerceDecimal(name, raw)
	case KindTime:
		return coerceTime(name, raw, false)
	case KindBool, KindPresence:
		return coerceBool(name, raw)
	}
	return nil, apperrors.NewInvalidFilter(name, "unsupported field kind")
}

// asString accepts strings and string-kinded enum types.
func asString(raw any) (string, bool) {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s), true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.String {
		return strings.TrimSpace(rv.String()), true
	}
	return "", false
}

func coerceDecimal(name string, raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case decimal.NullDecimal:
		if v.Valid {
			return v.Decimal, nil
		}
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err == nil {
			return d, nil
		}
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return decimal.Decimal{}, apperrors.NewInvalidFilter(name, "expected a decimal number")
}

const dateLayout = "2006-01-02"

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, dateLayout}

// ParseTime reads an RFC 3339 timestamp or a YYYY-MM-DD date. With upper set,
// a plain date stands for the last instant of that day so an inclusive upper
// bound covers the whole day.
func ParseTime(name, raw string, upper bool) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if upper && layout == dateLayout {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, apperrors.NewInvalidFilter(name, "expected an RFC3339 timestamp or YYYY-MM-DD date")
}

func coerceTime(name string, raw any, upper bool) (time.Time, error) {
	switch v := deref(raw).(type) {
	case time.Time:
		return v, nil
	case string:
		return ParseTime(name, v, upper)
	}
	return time.Time{}, apperrors.NewInvalidFilter(name, "expected an RFC3339 timestamp or YYYY-MM-DD date")
}

// ParseFlag accepts exactly the literals "true" and "false".
func ParseFlag(name, raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, apperrors.NewInvalidFilter(name, `expected true or false`)
}

// coerceBool accepts native booleans and the flag literals.
func coerceBool(name string, raw any) (bool, error) {
	switch v := deref(raw).(type) {
	case bool:
		return v, nil
	case string:
		return ParseFlag(name, v)
	}
	return false, apperrors.NewInvalidFilter(name, `expected true or false`)
}

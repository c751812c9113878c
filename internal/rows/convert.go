package rows

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// timeLayouts are tried in order when a text value is read as a time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if dv, ok := v.(driver.Valuer); ok {
		// Typed nils and invalid pgtype values report nil.
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		inner, err := dv.Value()
		return err == nil && inner == nil
	}
	return false
}

// unwrap resolves driver.Valuer implementations (pgtype values, sql.Null*)
// to their plain driver values.
func unwrap(v any) any {
	for i := 0; i < 4; i++ {
		dv, ok := v.(driver.Valuer)
		if !ok {
			return v
		}
		inner, err := dv.Value()
		if err != nil {
			return v
		}
		v = inner
	}
	return v
}

func unsupported(col, want string, v any) error {
	return &UnsupportedValueTypeError{Column: col, Want: want, Value: v}
}

func convErr(col, want string, err error) error {
	return &ConversionError{Column: col, Want: want, Err: err}
}

// AsBool converts v to bool.
func AsBool(col string, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return parseBool(col, x)
	case []byte:
		return parseBool(col, string(x))
	}
	if n, ok := intValue(v); ok {
		return n != 0, nil
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsBool(col, u)
	}
	return false, unsupported(col, "bool", v)
}

func parseBool(col, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, convErr(col, "bool", fmt.Errorf("invalid boolean %q", s))
}

// intValue extracts integer kinds without loss.
func intValue(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), true
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	}
	return 0, false
}

// AsInt64 converts v to int64. Floats and decimals must be integral.
func AsInt64(col string, v any) (int64, error) {
	if n, ok := intValue(v); ok {
		return n, nil
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float32:
		return floatToInt(col, float64(x))
	case float64:
		return floatToInt(col, x)
	case decimal.Decimal:
		return decimalToInt(col, x)
	case string:
		return parseInt(col, x)
	case []byte:
		return parseInt(col, string(x))
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsInt64(col, u)
	}
	return 0, unsupported(col, "int64", v)
}

// twoTo63 is the first float64 above the int64 range; float64(math.MaxInt64)
// rounds up to it.
const twoTo63 = 9223372036854775808.0

func floatToInt(col string, f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, convErr(col, "int64", fmt.Errorf("non-integral value %v", f))
	}
	if f >= twoTo63 || f < math.MinInt64 {
		return 0, convErr(col, "int64", fmt.Errorf("value %v out of range", f))
	}
	return int64(f), nil
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func decimalToInt(col string, d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, convErr(col, "int64", fmt.Errorf("non-integral decimal %s", d))
	}
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, convErr(col, "int64", fmt.Errorf("value %s out of range", d))
	}
	return d.IntPart(), nil
}

func parseInt(col, s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	// Accept "12.0" style integral text.
	if d, derr := decimal.NewFromString(s); derr == nil && d.IsInteger() {
		return decimalToInt(col, d)
	}
	return 0, convErr(col, "int64", err)
}

// AsInt32 converts v to int32 with a range check.
func AsInt32(col string, v any) (int32, error) {
	n, err := AsInt64(col, v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, convErr(col, "int32", fmt.Errorf("value %d out of range", n))
	}
	return int32(n), nil
}

// AsInt16 converts v to int16 with a range check.
func AsInt16(col string, v any) (int16, error) {
	n, err := AsInt64(col, v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt16 || n > math.MaxInt16 {
		return 0, convErr(col, "int16", fmt.Errorf("value %d out of range", n))
	}
	return int16(n), nil
}

// AsFloat64 converts v to float64.
func AsFloat64(col string, v any) (float64, error) {
	if n, ok := intValue(v); ok {
		return float64(n), nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, convErr(col, "float64", err)
		}
		return f, nil
	case []byte:
		return AsFloat64(col, string(x))
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsFloat64(col, u)
	}
	return 0, unsupported(col, "float64", v)
}

// AsDecimal converts v to an exact decimal.
func AsDecimal(col string, v any) (decimal.Decimal, error) {
	if n, ok := intValue(v); ok {
		return decimal.NewFromInt(n), nil
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Decimal{}, convErr(col, "decimal", err)
		}
		return d, nil
	case []byte:
		return AsDecimal(col, string(x))
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsDecimal(col, u)
	}
	return decimal.Decimal{}, unsupported(col, "decimal", v)
}

// AsTime converts v to time.Time. Integers are read as Unix seconds.
func AsTime(col string, v any) (time.Time, error) {
	if n, ok := intValue(v); ok {
		return time.Unix(n, 0).UTC(), nil
	}
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseTime(col, x)
	case []byte:
		return parseTime(col, string(x))
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsTime(col, u)
	}
	return time.Time{}, unsupported(col, "time", v)
}

func parseTime(col, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, convErr(col, "time", fmt.Errorf("unrecognized time %q", s))
}

// AsUUID converts v to a UUID. 16-byte slices are taken as raw RFC 4122 bytes.
func AsUUID(col string, v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case string:
		u, err := uuid.Parse(strings.TrimSpace(x))
		if err != nil {
			return uuid.Nil, convErr(col, "uuid", err)
		}
		return u, nil
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return AsUUID(col, string(x))
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsUUID(col, u)
	}
	return uuid.Nil, unsupported(col, "uuid", v)
}

// AsBytes converts v to a byte slice. The result never aliases driver memory.
func AsBytes(col string, v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return append([]byte(nil), x...), nil
	case string:
		return []byte(x), nil
	case uuid.UUID:
		return x[:], nil
	case [16]byte:
		return x[:], nil
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsBytes(col, u)
	}
	return nil, unsupported(col, "bytes", v)
}

// AsString converts v to its text form.
func AsString(col string, v any) (string, error) {
	if n, ok := intValue(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case decimal.Decimal:
		return x.String(), nil
	case uuid.UUID:
		return x.String(), nil
	case [16]byte:
		return uuid.UUID(x).String(), nil
	}
	if u := unwrap(v); !sameValue(u, v) {
		return AsString(col, u)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return "", unsupported(col, "string", v)
}

// sameValue reports whether unwrap made no progress. Comparing through
// reflect avoids panics on uncomparable dynamic types.
func sameValue(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil || !ta.Comparable() {
		return true
	}
	return a == b
}

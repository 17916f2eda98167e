package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindDate
	KindDatetime
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindList:     "list",
	KindMap:      "map",
	KindDate:     "date",
	KindDatetime: "datetime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a tagged union for check parameter values, execution input data
// and result payloads. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	m    map[string]Value
	t    time.Time
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }
func DateValue(d Date) Value { return Value{kind: KindDate, t: d.Time} }
func Datetime(t time.Time) Value { return Value{kind: KindDatetime, t: t} }

// Strings builds a list Value of strings.
func Strings(items ...string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = String(s)
	}
	return List(list...)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string held by v.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// IntValue returns the integer held by v.
func (v Value) IntValue() (int64, bool) { return v.i, v.kind == KindInt }

// FloatValue returns v as a float for both numeric kinds.
func (v Value) FloatValue() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// BoolValue returns the boolean held by v.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// ListValue returns the items held by v.
func (v Value) ListValue() ([]Value, bool) { return v.list, v.kind == KindList }

// MapValue returns the entries held by v.
func (v Value) MapValue() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// DateValue returns the date held by v.
func (v Value) DateValue() (Date, bool) { return Date{v.t}, v.kind == KindDate }

// TimeValue returns the time held by date and datetime values.
func (v Value) TimeValue() (time.Time, bool) {
	return v.t, v.kind == KindDate || v.kind == KindDatetime
}

// Interface returns v as plain Go data, the form encoding/json produces for
// the same document. Dates are rendered to their wire strings.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	case KindDate:
		return v.t.Format(DateLayout)
	case KindDatetime:
		return v.t.Format("2006-01-02T15:04:05")
	}
	return nil
}

// String renders v for display.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.m[k].String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	}
	s, _ := v.Interface().(string)
	return s
}

// Equal reports whether v and o hold the same variant and data.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	}
	return v.t.Equal(o.t)
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.Clone()
		}
		return List(items...)
	case KindMap:
		return Map(CloneValues(v.m))
	}
	return v
}

// CloneValues deep-copies a value map. A nil map stays nil.
func CloneValues(m map[string]Value) map[string]Value {
	if m == nil {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, item := range m {
		out[k] = item.Clone()
	}
	return out
}

// FromInterface converts decoded JSON or native Go data into a Value.
func FromInterface(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q", t.String())
		}
		return Float(f), nil
	case Date:
		return DateValue(t), nil
	case time.Time:
		return Datetime(t), nil
	case []string:
		return Strings(t...), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			val, err := FromInterface(item)
			if err != nil {
				return Null(), err
			}
			items[i] = val
		}
		return List(items...), nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := FromInterface(item)
			if err != nil {
				return Null(), err
			}
			m[k] = val
		}
		return Map(m), nil
	}
	return Null(), fmt.Errorf("unsupported value type %T", x)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler. Integral numbers decode as
// KindInt, other numbers as KindFloat, objects as KindMap.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Coerce validates v against a declared data type and casts it when the
// backend would accept the conversion: comma separated strings become lists,
// "yes"/"no" style strings become booleans, numeric strings become ints and
// YYYY-MM-DD strings become dates. Empty strings and null yield null, which
// callers resolve to the parameter default.
func (v Value) Coerce(dt DataType) (Value, error) {
	if v.kind == KindNull || (v.kind == KindString && v.s == "") {
		return Null(), nil
	}

	switch dt {
	case DataTypeString:
		switch v.kind {
		case KindString:
			return v, nil
		case KindInt, KindFloat, KindBool:
			return String(v.String()), nil
		}
	case DataTypeList:
		switch v.kind {
		case KindList:
			return v, nil
		case KindString:
			return Strings(strings.Split(v.s, ",")...), nil
		}
	case DataTypeBoolean:
		switch v.kind {
		case KindBool:
			return v, nil
		case KindString:
			b, err := parseBool(v.s)
			if err != nil {
				return Null(), err
			}
			return Bool(b), nil
		}
	case DataTypeInt:
		switch v.kind {
		case KindInt:
			return v, nil
		case KindFloat:
			if v.f != math.Trunc(v.f) {
				break
			}
			if v.f < math.MinInt64 || v.f >= 1<<63 {
				return Null(), fmt.Errorf("%v is out of the integer range", v.f)
			}
			return Int(int64(v.f)), nil
		case KindString:
			i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
			if err != nil {
				return Null(), fmt.Errorf("%q is not an integer", v.s)
			}
			return Int(i), nil
		}
	case DataTypeDate:
		switch v.kind {
		case KindDate:
			return v, nil
		case KindDatetime:
			return DateValue(NewDate(v.t.Year(), v.t.Month(), v.t.Day())), nil
		case KindString:
			d, err := ParseDate(v.s)
			if err != nil {
				return Null(), err
			}
			return DateValue(d), nil
		}
	case DataTypeDatetime:
		switch v.kind {
		case KindDatetime:
			return v, nil
		case KindDate:
			return Datetime(v.t), nil
		case KindString:
			ts, err := ParseTimestamp(v.s)
			if err != nil {
				return Null(), err
			}
			return Datetime(ts.Time), nil
		}
	default:
		return v, nil
	}
	return Null(), fmt.Errorf("cannot use %s value as %s", v.kind, dt)
}

// parseBool follows the truth values accepted by the backend.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid truth value %q", s)
}

package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truthy applies JavaScript truthiness: nil, false, 0, NaN and "" are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := number(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// ToNumber converts v to float64. Strings are parsed; unparsable input
// yields NaN.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	if f, ok := number(v); ok {
		return f
	}
	return math.NaN()
}

// ToString converts v to its display string. nil renders as "".
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return x.String()
	}
	if f, ok := number(v); ok {
		return formatNumber(f)
	}
	return fmt.Sprintf("%v", v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equal compares two values. Numbers compare by value across Go numeric
// types; other values of different types are unequal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// getMember reads a property from v.
func getMember(v any, name string) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("cannot read property %q of null", name)
	case Getter:
		val, _ := x.GetMember(name)
		return val, nil
	case map[string]any:
		return x[name], nil
	case string:
		if name == "length" {
			return float64(utf8.RuneCountInString(x)), nil
		}
		return nil, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot read property %q of null", name)
		}
		if m := methodByName(rv, name); m.IsValid() {
			return m.Interface(), nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if f := fieldByName(rv, name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
		if m := methodByName(rv, name); m.IsValid() {
			return m.Interface(), nil
		}
		return nil, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		val := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, nil
		}
		return val.Interface(), nil
	case reflect.Slice, reflect.Array:
		if name == "length" {
			return float64(rv.Len()), nil
		}
	}
	return nil, nil
}

// getIndex reads v[key].
func getIndex(v any, key any) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			break
		}
		rv = rv.Elem()
	}
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.String) {
		if _, isStr := key.(string); !isStr || key == "length" {
			if key == "length" {
				return getMember(v, "length")
			}
			i := ToNumber(key)
			if i != math.Trunc(i) || i < 0 || int(i) >= rv.Len() {
				return nil, nil
			}
			if rv.Kind() == reflect.String {
				return string(rv.String()[int(i)]), nil
			}
			return rv.Index(int(i)).Interface(), nil
		}
	}
	return getMember(v, ToString(key))
}

// setMember assigns v.name = value.
func setMember(v any, name string, value any) error {
	switch x := v.(type) {
	case nil:
		return fmt.Errorf("cannot set property %q of null", name)
	case Setter:
		return x.SetMember(name, value)
	case map[string]any:
		x[name] = value
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		val, err := convertArg(value, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()), val)
		return nil
	case reflect.Pointer:
		if rv.IsNil() {
			return fmt.Errorf("cannot set property %q of null", name)
		}
		if rv.Elem().Kind() != reflect.Struct {
			break
		}
		f := fieldByName(rv.Elem(), name)
		if !f.IsValid() || !f.CanSet() {
			return fmt.Errorf("cannot set property %q", name)
		}
		val, err := convertArg(value, f.Type())
		if err != nil {
			return err
		}
		f.Set(val)
		return nil
	}
	return fmt.Errorf("cannot set property %q on %T", name, v)
}

// setIndex assigns v[key] = value.
func setIndex(v any, key any, value any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		i := ToNumber(key)
		if i != math.Trunc(i) || i < 0 || int(i) >= rv.Len() {
			return fmt.Errorf("index %s out of range", ToString(key))
		}
		val, err := convertArg(value, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.Index(int(i)).Set(val)
		return nil
	}
	return setMember(v, ToString(key), value)
}

func fieldByName(rv reflect.Value, name string) reflect.Value {
	if f := rv.FieldByName(name); f.IsValid() {
		return f
	}
	return rv.FieldByName(exported(name))
}

func methodByName(rv reflect.Value, name string) reflect.Value {
	if m := rv.MethodByName(name); m.IsValid() {
		return m
	}
	return rv.MethodByName(exported(name))
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// call invokes fn with args. Func values are called directly; any other Go
// function is called through reflection with argument conversion.
func call(fn any, args []any) (any, error) {
	switch f := fn.(type) {
	case nil:
		return nil, fmt.Errorf("value is not a function")
	case Func:
		return f(args...)
	case func(...any) (any, error):
		return f(args...)
	case func(...any) any:
		return f(args...), nil
	case func():
		f()
		return nil, nil
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%T is not a function", fn)
	}
	ft := rv.Type()

	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < ft.NumIn(); i++ {
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			elem := ft.In(i).Elem()
			for _, a := range args[min(i, len(args)):] {
				v, err := convertArg(a, elem)
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			break
		}
		var a any
		if i < len(args) {
			a = args[i]
		}
		v, err := convertArg(a, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		in = append(in, v)
	}

	out := rv.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		var err error
		if ft.Out(len(out)-1) == errorType {
			err, _ = out[len(out)-1].Interface().(error)
		}
		return out[0].Interface(), err
	}
}

// convertArg converts an expression value to the Go type t.
func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if _, ok := number(v); ok || isStringish(v) {
			return reflect.ValueOf(ToNumber(v)).Convert(t), nil
		}
	case reflect.String:
		return reflect.ValueOf(ToString(v)).Convert(t), nil
	case reflect.Bool:
		return reflect.ValueOf(Truthy(v)), nil
	case reflect.Interface:
		if rv.Type().Implements(t) {
			val := reflect.New(t).Elem()
			val.Set(rv)
			return val, nil
		}
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

func isStringish(v any) bool {
	_, ok := v.(string)
	return ok
}

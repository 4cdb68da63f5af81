package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

// Bind fills the tagged fields of target, a pointer to a struct, from the
// request. Fields tagged `param:"name"` read captured placeholders and
// fields tagged `query:"name"` read the query string:
//
//	var p struct {
//		ID  int    `param:"id"`
//		Tab string `query:"tab"`
//	}
//	err := req.Bind(&p)
//
// A []string field splits its value on '/', which suits {*} captures.
func (r Request) Bind(target any) error {
	if target == nil {
		return nil
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return gerrors.New("G012").WithDetailf("target must be a pointer to struct, got %T", target)
	}

	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		var (
			name   string
			source map[string]string
		)
		if name = field.Tag.Get("param"); name != "" {
			source = r.Named
		} else if name = field.Tag.Get("query"); name != "" {
			source = r.Query
		} else {
			continue
		}

		value, ok := source[name]
		if !ok {
			continue
		}
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if err := setField(fv, value); err != nil {
			return gerrors.New("G012").WithDetailf("field %s (%q)", field.Name, name).Wrap(err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type().Elem().Kind())
		}
		var parts []string
		if value != "" {
			parts = strings.Split(value, "/")
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}
	return nil
}

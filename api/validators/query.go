package validators

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
)

// BindQuery copies query parameters into the `query`-tagged fields of dest
// (string and int kinds, embedded structs included) and validates the result.
func BindQuery(r *http.Request, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind query: destination must be a struct pointer, got %T", dest)
	}
	if err := bindValues(r.URL.Query(), v.Elem()); err != nil {
		return err
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func bindValues(q url.Values, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			if err := bindValues(q, fv); err != nil {
				return err
			}
			continue
		}
		name := field.Tag.Get("query")
		if name == "" || !fv.CanSet() {
			continue
		}
		raw := SanitizeQueryValue(q.Get(name), maxQueryValueLen)
		if raw == "" {
			continue
		}
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{name: "must be numeric"})
			}
			fv.SetInt(int64(n))
		default:
			return fmt.Errorf("bind query: unsupported kind %s for %s", fv.Kind(), name)
		}
	}
	return nil
}

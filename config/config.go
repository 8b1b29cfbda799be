// Package config loads typed configuration structs from the environment.
// Fields declare their variable with struct tags; loading panics on missing
// required values so misconfiguration is caught at startup, not mid-request.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// MustLoad populates a struct of type T from environment variables.
//
// Tags:
//
//	env:"VAR_NAME"    — variable to read (fields without it are skipped)
//	default:"value"   — used when the variable is empty
//	required:"false"  — tolerate a missing value, keeping the zero value
//
// Fields may be string, int, int64, bool, time.Duration, or []string
// (comma-separated, entries trimmed). A field with no value, no default,
// and no required:"false" panics.
func MustLoad[T any]() T {
	var cfg T
	v := reflect.ValueOf(&cfg).Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		raw := os.Getenv(key)
		if raw == "" {
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			if field.Tag.Get("required") == "false" {
				continue
			}
			panic(fmt.Sprintf("config: %s (field %s) is not set and has no default", key, field.Name))
		}

		if err := assign(v.Field(i), raw); err != nil {
			panic(fmt.Sprintf("config: %s=%q: %v", key, raw, err))
		}
	}
	return cfg
}

var (
	durationType    = reflect.TypeOf(time.Duration(0))
	stringSliceType = reflect.TypeOf([]string(nil))
)

func assign(field reflect.Value, raw string) error {
	switch field.Type() {
	case durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	case stringSliceType:
		parts := strings.Split(raw, ",")
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		field.Set(reflect.ValueOf(out))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
		return nil
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
		return nil
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
}

// Package clicfg populates a plain config struct from urfave/cli flag
// values, matching fields to flags via the `flag:"name"` struct tag.
package clicfg

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/urfave/cli/v3"
)

var (
	ErrCannotParseFlags = errors.New("cannot parse flags")

	durationType = reflect.TypeOf(time.Duration(0))
)

func ParseFlags(c *cli.Command, s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("%w: expected pointer to struct, got %T", ErrCannotParseFlags, s)
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: expected pointer to struct, got pointer to %s", ErrCannotParseFlags, v.Kind())
	}

	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		flagName := field.Tag.Get("flag")
		if flagName == "" {
			continue
		}

		if err := setField(c, field, fieldValue, flagName); err != nil {
			return err
		}
	}

	return nil
}

func setField(c *cli.Command, field reflect.StructField, fieldValue reflect.Value, flagName string) error {
	// time.Duration is an int64 underneath, so it has to be matched before
	// the integer kinds.
	if field.Type == durationType {
		fieldValue.SetInt(int64(c.Duration(flagName)))
		return nil
	}

	switch field.Type.Kind() {
	case reflect.String:
		fieldValue.SetString(c.String(flagName))
	case reflect.Bool:
		fieldValue.SetBool(c.Bool(flagName))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fieldValue.SetInt(int64(c.Int(flagName)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fieldValue.SetUint(uint64(c.Uint(flagName)))
	case reflect.Float32, reflect.Float64:
		fieldValue.SetFloat(c.Float64(flagName))
	case reflect.Slice:
		if field.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: unsupported slice type for field %s", ErrCannotParseFlags, field.Name)
		}
		fieldValue.Set(reflect.ValueOf(c.StringSlice(flagName)))
	default:
		return fmt.Errorf("%w: unsupported type %s for field %s", ErrCannotParseFlags, field.Type, field.Name)
	}

	return nil
}

package stepconf

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-mediaupload/internal"
	"github.com/bitrise-io/go-utils/v2/env"
)

var (
	// ErrNotStructPtr ...
	ErrNotStructPtr = errors.New("must be a struct pointer")
	// ErrRequired ...
	ErrRequired = errors.New("required variable is not present")
	// ErrInvalidOption ...
	ErrInvalidOption = errors.New("value is not in value options")
)

var durationType = reflect.TypeOf(time.Duration(0))

var osProxy internal.OsProxy = internal.RealOS{}

// EnvGetter looks up a single variable. env.Repository satisfies it.
type EnvGetter interface {
	Get(key string) string
}

// Parse fills the env tagged fields of conf from the process environment.
//
// Tag format: `env:"KEY[,constraint]"` where constraint is one of
// required, file, dir or opt[a,b,'c,d'].
func Parse(conf interface{}) error {
	return parse(conf, env.NewRepository())
}

func parse(conf interface{}, envGetter EnvGetter) error {
	c := reflect.ValueOf(conf)
	if c.Kind() != reflect.Ptr {
		return ErrNotStructPtr
	}
	c = c.Elem()
	if c.Kind() != reflect.Struct {
		return ErrNotStructPtr
	}
	t := c.Type()

	var errs []error
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}
		key, constraint := parseTag(tag)
		value := envGetter.Get(key)

		if err := setField(c.Field(i), value, constraint); err != nil {
			errs = append(errs, fmt.Errorf("- %s: %w", key, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to parse config:\n%w", err)
	}
	return nil
}

func parseTag(tag string) (string, string) {
	if i := strings.Index(tag, ","); i >= 0 {
		return tag[:i], tag[i+1:]
	}
	return tag, ""
}

func setField(field reflect.Value, value, constraint string) error {
	if err := validate(value, constraint); err != nil {
		return err
	}
	if value == "" {
		return nil
	}

	if field.Kind() == reflect.Ptr {
		ptr := reflect.New(field.Type().Elem())
		if err := setValue(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}
	return setValue(field, value)
}

func setValue(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 0, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("can't convert to int: %w", err)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 0, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("can't convert to uint: %w", err)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("can't convert to float: %w", err)
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type())
		}
		items := strings.Split(value, "|")
		slice := reflect.MakeSlice(field.Type(), len(items), len(items))
		for i, item := range items {
			slice.Index(i).SetString(item)
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported type: %s", field.Type())
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("can't convert to bool: %w", err)
	}
	return b, nil
}

func validate(value, constraint string) error {
	switch {
	case constraint == "":
		return nil
	case constraint == "required":
		if value == "" {
			return ErrRequired
		}
	case constraint == "file":
		if value != "" {
			return internal.NewPathChecker(osProxy).IsFile().Check(value)
		}
	case constraint == "dir":
		if value != "" {
			return internal.NewPathChecker(osProxy).IsDir().Check(value)
		}
	case strings.HasPrefix(constraint, "opt[") && strings.HasSuffix(constraint, "]"):
		for _, option := range valueOptions(constraint) {
			if option == value {
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrInvalidOption, value)
	default:
		return fmt.Errorf("invalid constraint: %s", constraint)
	}
	return nil
}

// valueOptions splits opt[a,b,'c,d'] into a, b and "c,d".
func valueOptions(constraint string) []string {
	list := strings.TrimSuffix(strings.TrimPrefix(constraint, "opt["), "]")

	var options []string
	var current strings.Builder
	quoted := false
	for _, r := range list {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ',' && !quoted:
			options = append(options, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(options, current.String())
}

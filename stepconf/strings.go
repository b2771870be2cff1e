package stepconf

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bitrise-io/go-utils/colorstring"
)

const unset = "<unset>"

// Secret variables are masked when the config is printed.
type Secret string

// String ...
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", 5)
}

// Print writes the fields of config to stdout, one per line, keyed by their
// env key.
func Print(config interface{}) {
	fmt.Print(toString(config))
}

func toString(config interface{}) string {
	v := reflect.ValueOf(config)
	t := reflect.TypeOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
		t = t.Elem()
	}

	name := t.Name()
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}

	str := colorstring.Bluef("%s:\n", name)
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Name
		if tag, ok := t.Field(i).Tag.Lookup("env"); ok {
			key, _ = parseTag(tag)
		}

		value := unset
		if !v.Field(i).IsZero() {
			value = valueString(v.Field(i))
		}
		str += fmt.Sprintf("- %s: %s\n", key, value)
	}
	return str
}

// valueString returns the printable value, dereferencing pointers. A nil
// pointer prints as an empty string.
func valueString(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.String {
		items := make([]string, v.Len())
		for i := range items {
			items[i] = fmt.Sprintf("%v", v.Index(i).Interface())
		}
		return strings.Join(items, "|")
	}
	return fmt.Sprintf("%v", v.Interface())
}

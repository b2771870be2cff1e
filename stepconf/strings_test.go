package stepconf

import (
	"io"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_valueString(t *testing.T) {
	var (
		s = "test"
		i = 99
		b = true
	)
	var (
		sNilPtr *string
		iNilPtr *int64
	)

	tests := []struct {
		name string
		v    reflect.Value
		want string
	}{
		{"string", reflect.ValueOf(s), "test"},
		{"string ptr", reflect.ValueOf(&s), "test"},
		{"string nil-ptr", reflect.ValueOf(sNilPtr), ""},
		{"int", reflect.ValueOf(i), "99"},
		{"int ptr", reflect.ValueOf(&i), "99"},
		{"int64 nil-ptr", reflect.ValueOf(iNilPtr), ""},
		{"bool", reflect.ValueOf(b), "true"},
		{"string slice", reflect.ValueOf([]string{"a.png", "b.png"}), "a.png|b.png"},
		{"secret", reflect.ValueOf(Secret("auth-token")), "*****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueString(tt.v); got != tt.want {
				t.Errorf("valueString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_PrintFormat(t *testing.T) {
	type twitterConfig struct {
		InputType       string `env:"input_type,opt[url,binary]"`
		FieldWithoutTag string
		AltText         string `env:"alt_text"`
		MaxPolls        int    `env:"max_polls"`
		ContinueOnFail  bool   `env:"continue_on_fail"`
		AuthToken       Secret `env:"auth_token"`
		MediaURL        string `env:"media_url,required"`
	}

	cfg := twitterConfig{
		InputType:       "url",
		FieldWithoutTag: "This field doesn't have a struct tag",
		AuthToken:       "my secret",
		MediaURL:        "https://example.com/cat.png",
	}

	reader, writer, err := os.Pipe()
	assert.NoError(t, err)

	origStdout := os.Stdout
	os.Stdout = writer

	Print(cfg)

	os.Stdout = origStdout
	assert.NoError(t, writer.Close())

	content, err := io.ReadAll(reader)
	assert.NoError(t, err)

	expected := "\x1b[34;1mTwitterConfig:\n\x1b[0m" +
		"- input_type: url\n" +
		"- FieldWithoutTag: This field doesn't have a struct tag\n" +
		"- alt_text: <unset>\n" +
		"- max_polls: <unset>\n" +
		"- continue_on_fail: <unset>\n" +
		"- auth_token: *****\n" +
		"- media_url: https://example.com/cat.png\n"
	assert.Equal(t, expected, string(content))
}

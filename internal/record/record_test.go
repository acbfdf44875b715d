package record_test

import (
	"encoding/json"
	"testing"

	"github.com/feedsnap/feedsnap/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValueUnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string

		want    record.Value
		wantErr bool
	}{
		"String":         {input: `"hello"`, want: record.String("hello")},
		"Empty string":   {input: `""`, want: record.String("")},
		"Integer number": {input: `42`, want: record.Number(42)},
		"Decimal number": {input: `9.99`, want: record.Number(9.99)},
		"Zero":           {input: `0`, want: record.Number(0)},
		"Negative":       {input: `-1.5`, want: record.Number(-1.5)},
		"True":           {input: `true`, want: record.Bool(true)},
		"False":          {input: `false`, want: record.Bool(false)},
		"Null":           {input: `null`, want: record.Null()},
		"Nested object keeps compact encoding": {
			input: `{ "a": 1, "b": [2, 3] }`,
			want:  record.String(`{"a":1,"b":[2,3]}`),
		},
		"Nested array keeps compact encoding": {
			input: `[ "x", { "y": true } ]`,
			want:  record.String(`["x",{"y":true}]`),
		},

		// Error cases
		"Empty input":         {input: ``, wantErr: true},
		"Bad literal":         {input: `nope`, wantErr: true},
		"Truncated object":    {input: `{"a":`, wantErr: true},
		"Bare word":           {input: `hello`, wantErr: true},
		"Number with garbage": {input: `1x2`, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got record.Value
			err := got.UnmarshalJSON([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err, "UnmarshalJSON should return an error")
				return
			}
			require.NoError(t, err, "UnmarshalJSON should not return an error")
			assert.Equal(t, tc.want, got, "decoded value should match")
		})
	}
}

func TestValueText(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value record.Value

		want string
	}{
		"String":                 {value: record.String("A"), want: "A"},
		"Whole number":           {value: record.Number(1), want: "1"},
		"Large whole number":     {value: record.Number(1234567), want: "1234567"},
		"Decimal":                {value: record.Number(9.99), want: "9.99"},
		"Zero":                   {value: record.Number(0), want: "0"},
		"Negative decimal":       {value: record.Number(-0.5), want: "-0.5"},
		"True":                   {value: record.Bool(true), want: "true"},
		"False":                  {value: record.Bool(false), want: "false"},
		"Null is empty":          {value: record.Null(), want: ""},
		"Zero value is null":     {value: record.Value{}, want: ""},
		"String keeps its zeros": {value: record.String("007"), want: "007"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.value.Text(), "text form should match")
		})
	}
}

func TestRecordUnmarshalJSON(t *testing.T) {
	t.Parallel()

	input := `{"id": 1, "title": "A", "price": 9.99, "in_stock": true, "tags": ["a", "b"], "meta": null}`

	var got record.Record
	err := json.Unmarshal([]byte(input), &got)
	require.NoError(t, err, "record should decode")

	want := record.Record{
		"id":       record.Number(1),
		"title":    record.String("A"),
		"price":    record.Number(9.99),
		"in_stock": record.Bool(true),
		"tags":     record.String(`["a","b"]`),
		"meta":     record.Null(),
	}
	assert.Equal(t, want, got, "decoded record should match")
}

func TestValueJSONRoundTrip(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value record.Value
	}{
		"String": {value: record.String("hello")},
		"Number": {value: record.Number(9.99)},
		"Bool":   {value: record.Bool(true)},
		"Null":   {value: record.Null()},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tc.value)
			require.NoError(t, err, "value should marshal")

			var got record.Value
			require.NoError(t, json.Unmarshal(data, &got), "value should unmarshal")
			assert.Equal(t, tc.value, got, "value should round trip through JSON")
		})
	}
}

func TestValueYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value record.Value
	}{
		"String":                   {value: record.String("hello")},
		"String that looks bool":   {value: record.String("true")},
		"String that looks number": {value: record.String("123")},
		"Whole number":             {value: record.Number(3)},
		"Decimal":                  {value: record.Number(9.99)},
		"Bool":                     {value: record.Bool(false)},
		"Null":                     {value: record.Null()},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := yaml.Marshal(tc.value)
			require.NoError(t, err, "value should marshal")

			var got record.Value
			require.NoError(t, yaml.Unmarshal(data, &got), "value should unmarshal")
			assert.Equal(t, tc.value, got, "value should round trip through YAML")
		})
	}
}

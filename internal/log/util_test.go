package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantLen  int
		wantKeys []string
	}{
		{"empty input", []any{}, 0, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, 3, []string{"a", "b", "c"}},
		{"time and duration", []any{"t", now, "d", time.Second}, 2, []string{"t", "d"}},
		{"error only", []any{err}, 1, []string{"error"}},
		{"named error", []any{"cause", err}, 1, []string{"cause"}},
		{"zap field passthrough", []any{"msg", "ok", zap.String("x", "y"), "num", 42}, 3, []string{"msg", "x", "num"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, 2, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, 1, []string{"invalid_key_1"}},
		{"nil value", []any{"a", nil}, 1, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			if len(fields) != tt.wantLen {
				t.Fatalf("len(fields) = %d, want %d", len(fields), tt.wantLen)
			}
			for i, k := range tt.wantKeys {
				if fields[i].Key != k {
					t.Errorf("fields[%d].Key = %q, want %q", i, fields[i].Key, k)
				}
			}
		})
	}
}

func TestToFields_Types(t *testing.T) {
	fields := toFields("n", 7, "f", 1.5, "s", "x")

	if fields[0].Type != zapcore.Int64Type {
		t.Errorf("int field type = %v", fields[0].Type)
	}
	if fields[1].Type != zapcore.Float64Type {
		t.Errorf("float field type = %v", fields[1].Type)
	}
	if fields[2].Type != zapcore.StringType {
		t.Errorf("string field type = %v", fields[2].Type)
	}
}

func TestOptions_Validate(t *testing.T) {
	o := NewOptions()
	if errs := o.Validate(); len(errs) != 0 {
		t.Errorf("default options invalid: %v", errs)
	}

	o.Format = "xml"
	o.Level = "loud"
	if errs := o.Validate(); len(errs) != 2 {
		t.Errorf("Validate() returned %d errors, want 2", len(errs))
	}
}

func TestNewLogger_JSON(t *testing.T) {
	l := NewLogger(&Options{Level: "debug", Format: "json", OutputPaths: []string{"stderr"}})
	l.WithName("test").WithValues("vehicle_id", "v1").Info("hello", "km", 10)
}

package httputil

import (
	"encoding/json"
	"testing"
)

func TestOptionalStringTriState(t *testing.T) {
	type body struct {
		Name OptionalString `json:"name"`
	}

	tests := []struct {
		name        string
		json        string
		wantPresent bool
		wantValue   *string
	}{
		{name: "absent", json: `{}`, wantPresent: false},
		{name: "null", json: `{"name": null}`, wantPresent: true, wantValue: nil},
		{name: "empty", json: `{"name": ""}`, wantPresent: true, wantValue: ptr("")},
		{name: "set", json: `{"name": "Work"}`, wantPresent: true, wantValue: ptr("Work")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b body
			if err := json.Unmarshal([]byte(tt.json), &b); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if b.Name.Present != tt.wantPresent {
				t.Errorf("present = %v, want %v", b.Name.Present, tt.wantPresent)
			}
			switch {
			case tt.wantValue == nil && b.Name.Value != nil:
				t.Errorf("value = %q, want nil", *b.Name.Value)
			case tt.wantValue != nil && (b.Name.Value == nil || *b.Name.Value != *tt.wantValue):
				t.Errorf("value = %v, want %q", b.Name.Value, *tt.wantValue)
			}
		})
	}
}

func TestOptionalTime(t *testing.T) {
	type body struct {
		Date OptionalTime `json:"date"`
	}

	t.Run("absent", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{}`), &b); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if b.Date.Present {
			t.Error("absent field must not be present")
		}
	})

	t.Run("null clears", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{"date": null}`), &b); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !b.Date.Present || b.Date.Value != nil {
			t.Errorf("null should be present with nil value, got %+v", b.Date)
		}
	})

	t.Run("bare date", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{"date": "2026-08-29"}`), &b); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if b.Date.Value == nil || b.Date.Value.Format("2006-01-02") != "2026-08-29" {
			t.Errorf("date = %v", b.Date.Value)
		}
	})

	t.Run("rfc3339", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{"date": "2026-08-29T10:30:00Z"}`), &b); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if b.Date.Value == nil || b.Date.Value.Hour() != 10 {
			t.Errorf("date = %v", b.Date.Value)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		var b body
		if err := json.Unmarshal([]byte(`{"date": "next tuesday"}`), &b); err == nil {
			t.Error("expected error for unparseable date")
		}
	})
}

func ptr(s string) *string { return &s }

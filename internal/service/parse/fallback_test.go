package parse

import (
	"reflect"
	"testing"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name        string
		utterance   string
		wantContent string
		wantTags    []string
	}{
		{
			name:        "extracts hashtags",
			utterance:   "call the dentist tomorrow #health #Urgent",
			wantContent: "call the dentist tomorrow #health #Urgent",
			wantTags:    []string{"health", "urgent"},
		},
		{
			name:        "no hashtags",
			utterance:   "  just a plain note  ",
			wantContent: "just a plain note",
			wantTags:    []string{},
		},
		{
			name:        "duplicate hashtags collapse",
			utterance:   "#a then #A again",
			wantContent: "#a then #A again",
			wantTags:    []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Fallback(tt.utterance)
			if !result.Degraded {
				t.Error("fallback result should be marked degraded")
			}
			if result.Proposal == nil {
				t.Fatal("fallback result has no proposal")
			}
			if result.Proposal.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", result.Proposal.Content, tt.wantContent)
			}
			if !reflect.DeepEqual(result.Proposal.Tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", result.Proposal.Tags, tt.wantTags)
			}
			if result.Proposal.NewPage || result.Proposal.NewSection {
				t.Error("fallback must never propose page or section creation")
			}
			if result.Proposal.Date != nil {
				t.Error("fallback must not extract dates")
			}
		})
	}
}

func TestDecodeResult(t *testing.T) {
	t.Run("single proposal", func(t *testing.T) {
		result, err := decodeResult(`{
			"content": "buy milk",
			"tags": ["errand"],
			"date": "2026-09-01",
			"page": "Home",
			"section": "Shopping",
			"new_page": false,
			"new_section": true,
			"response_message": "Filed under Shopping."
		}`)
		if err != nil {
			t.Fatalf("decodeResult: %v", err)
		}
		if result.Proposal == nil {
			t.Fatal("expected a proposal")
		}
		p := result.Proposal
		if p.Content != "buy milk" || p.Page != "Home" || p.Section != "Shopping" || !p.NewSection {
			t.Errorf("unexpected proposal: %+v", p)
		}
		if p.Date == nil || p.Date.Format("2006-01-02") != "2026-09-01" {
			t.Errorf("date not decoded: %v", p.Date)
		}
	})

	t.Run("plan", func(t *testing.T) {
		result, err := decodeResult(`{
			"plan": [
				{"description": "set up project", "action_count": 2,
				 "previews": ["a", "b"],
				 "actions": [{"content": "a"}, {"content": "b"}]},
				{"description": "add reminders", "previews": ["c"],
				 "actions": [{"content": "c"}]}
			]
		}`)
		if err != nil {
			t.Fatalf("decodeResult: %v", err)
		}
		if len(result.Plan) != 2 {
			t.Fatalf("plan groups = %d, want 2", len(result.Plan))
		}
		if result.Plan[1].ActionCount != 1 {
			t.Errorf("missing action_count should default to len(actions), got %d", result.Plan[1].ActionCount)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := decodeResult("not json"); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("empty output", func(t *testing.T) {
		if _, err := decodeResult(`{"content": "  "}`); err == nil {
			t.Error("expected error for output with neither content nor plan")
		}
	})
}

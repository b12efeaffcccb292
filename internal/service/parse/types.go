package parse

import "time"

// Context is the snapshot of the caller's hierarchy handed to the
// parser so it can route the utterance.
type Context struct {
	Pages          []string `json:"pages"`
	Sections       []string `json:"sections"`
	CurrentPage    string   `json:"current_page,omitempty"`
	CurrentSection string   `json:"current_section,omitempty"`
	ExistingTags   []string `json:"existing_tags,omitempty"`
}

// Proposal is the parser's structured reading of one utterance. It is
// advisory: the intake coordinator may override any of it.
type Proposal struct {
	Content         string     `json:"content"`
	Tags            []string   `json:"tags"`
	Date            *time.Time `json:"date,omitempty"`
	Page            string     `json:"page,omitempty"`
	Section         string     `json:"section,omitempty"`
	NewPage         bool       `json:"new_page"`
	NewSection      bool       `json:"new_section"`
	ResponseMessage string     `json:"response_message"`
}

// PlanGroup is one confirmable step of a multi-step plan. Actions are
// executed in declared order when the group is accepted.
type PlanGroup struct {
	Description string     `json:"description"`
	ActionCount int        `json:"action_count"`
	Previews    []string   `json:"previews"`
	Actions     []Proposal `json:"actions"`
}

// Result is what a parse call yields: either a single proposal or a
// plan. Degraded marks results produced by the deterministic fallback.
type Result struct {
	Proposal *Proposal   `json:"proposal,omitempty"`
	Plan     []PlanGroup `json:"plan,omitempty"`
	Degraded bool        `json:"degraded,omitempty"`
}

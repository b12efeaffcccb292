package parse

import (
	"regexp"
	"strings"

	"inkwell/internal/domain/models"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_-]+)`)

// Fallback is the deterministic parser used whenever the upstream
// service fails or times out. The whole utterance becomes the note
// body, hashtag tokens become tags, and no routing is proposed.
func Fallback(utterance string) *Result {
	tags := make([]string, 0, 4)
	for _, match := range hashtagPattern.FindAllStringSubmatch(utterance, -1) {
		tags = append(tags, match[1])
	}
	return &Result{
		Proposal: &Proposal{
			Content:         strings.TrimSpace(utterance),
			Tags:            models.NormalizeTags(tags),
			ResponseMessage: "Saved your note as written.",
		},
		Degraded: true,
	}
}

package document

import (
	"fmt"
	"strings"
)

// Unit is one narrative segment of a document, rendered to one video artifact.
// TargetDuration is a lower bound in seconds for the scene's total wait time.
type Unit struct {
	ID             string  `json:"id"`
	Slug           string  `json:"slug"`
	Narrative      string  `json:"narrative"`
	Instruction    string  `json:"instruction"`
	TargetDuration float64 `json:"target_duration"`
}

const (
	wordsPerSecond      = 2.5
	minTargetDuration   = 2.0
	feedbackHeader      = "IMPORTANT FEEDBACK FROM PREVIOUS ATTEMPT:"
	feedbackInstruction = "Fix these issues in the new code."
)

// TargetDuration estimates how long the narrative takes to read aloud,
// at 150 words per minute, never less than two seconds.
func TargetDuration(narrative string) float64 {
	words := len(strings.Fields(narrative))
	d := float64(words) / wordsPerSecond
	if d < minTargetDuration {
		return minTargetDuration
	}
	return d
}

// WithFeedback returns a copy of u whose instruction carries the validator's
// feedback. u itself is left untouched.
func (u Unit) WithFeedback(feedback string) Unit {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return u
	}
	u.Instruction = fmt.Sprintf("%s\n\n%s\n%s\n%s", u.Instruction, feedbackHeader, feedback, feedbackInstruction)
	return u
}

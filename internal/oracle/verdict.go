package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedVerdict is returned when the validator reply is not the
// expected JSON object.
var ErrMalformedVerdict = errors.New("malformed validation verdict")

// Verdict is the validator's judgment of a code candidate.
type Verdict struct {
	Passed   bool   `json:"passed"`
	Feedback string `json:"feedback"`
}

// ParseVerdict decodes {"passed": bool, "feedback": string}. The object may
// be wrapped in fences or surrounded by prose. A reply without a boolean
// "passed" field is malformed.
func ParseVerdict(raw string) (Verdict, error) {
	body := StripFences(raw)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return Verdict{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedVerdict, truncate(raw, 120))
	}

	var v struct {
		Passed   *bool  `json:"passed"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if v.Passed == nil {
		return Verdict{}, fmt.Errorf("%w: missing \"passed\"", ErrMalformedVerdict)
	}
	return Verdict{Passed: *v.Passed, Feedback: strings.TrimSpace(v.Feedback)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

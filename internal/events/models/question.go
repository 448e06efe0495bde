package models

import (
	"slices"
	"strings"

	dErrors "egresados/pkg/domain-errors"
	"egresados/pkg/platform/dataurl"
	pstrings "egresados/pkg/platform/strings"
)

type QuestionType string

const (
	QuestionText   QuestionType = "text"
	QuestionSelect QuestionType = "select"
	QuestionFile   QuestionType = "file"
)

// Question is one entry of an event's registration form. Answers are keyed by Text.
type Question struct {
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
}

// NormalizeQuestions tidies the schema and checks that every question has a
// text unique regardless of case, a known type, and options when it is a select.
func NormalizeQuestions(questions []Question) ([]Question, error) {
	out := make([]Question, 0, len(questions))
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		text := pstrings.CollapseSpace(q.Text)
		if text == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "Question text is required")
		}
		key := pstrings.FoldKey(text)
		if _, dup := seen[key]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "Duplicate question: "+text)
		}
		seen[key] = struct{}{}

		typ := q.Type
		if typ == "" {
			typ = QuestionText
		}
		nq := Question{Text: text, Type: typ}
		switch typ {
		case QuestionText, QuestionFile:
		case QuestionSelect:
			nq.Options = pstrings.DedupeFold(q.Options)
			if len(nq.Options) == 0 {
				return nil, dErrors.New(dErrors.CodeValidation, "Question "+text+" needs at least one option")
			}
		default:
			return nil, dErrors.New(dErrors.CodeValidation, "Unknown question type: "+string(q.Type))
		}
		out = append(out, nq)
	}
	return out, nil
}

// SameQuestions reports whether two schemas are identical, order included.
func SameQuestions(a, b []Question) bool {
	return slices.EqualFunc(a, b, func(x, y Question) bool {
		return x.Text == y.Text && x.Type == y.Type && slices.Equal(x.Options, y.Options)
	})
}

// CheckResponses validates submitted answers against questions and returns
// the answers to keep. Every question needs a non-blank answer; all missing
// questions are reported together. Answers to unknown questions are dropped.
func CheckResponses(questions []Question, responses map[string]string) (map[string]string, error) {
	kept := make(map[string]string, len(questions))
	var unanswered []string
	for _, q := range questions {
		answer := strings.TrimSpace(responses[q.Text])
		if answer == "" {
			unanswered = append(unanswered, q.Text)
			continue
		}
		kept[q.Text] = answer
	}
	if len(unanswered) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "Unanswered questions: "+strings.Join(unanswered, ", "))
	}

	for _, q := range questions {
		answer := kept[q.Text]
		switch q.Type {
		case QuestionSelect:
			if !slices.Contains(q.Options, answer) {
				return nil, dErrors.New(dErrors.CodeValidation, "Invalid option for "+q.Text)
			}
		case QuestionFile:
			if _, err := dataurl.Parse(answer); err != nil {
				return nil, dErrors.New(dErrors.CodeValidation, "Answer to "+q.Text+" must be a file")
			}
		}
	}
	return kept, nil
}

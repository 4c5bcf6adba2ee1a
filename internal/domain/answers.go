package domain

import (
	"encoding/json"
	"fmt"
)

// AnswerFormat is the closed set of question formats: FreeText or MultipleChoice.
type AnswerFormat interface {
	answerFormat()
}

// FreeText questions accept any text.
type FreeText struct{}

// MultipleChoice questions accept one of Options.
type MultipleChoice struct {
	Options []string
}

func (FreeText) answerFormat()       {}
func (MultipleChoice) answerFormat() {}

const (
	formatFreeText       = "free_text"
	formatMultipleChoice = "multiple_choice"
)

// AnswerBase wraps the format of a question so it can travel as JSON:
//
//	{"type":"free_text"}
//	{"type":"multiple_choice","options":["A","B"]}
type AnswerBase struct {
	Format AnswerFormat
}

func FreeTextBase() AnswerBase {
	return AnswerBase{Format: FreeText{}}
}

func MultipleChoiceBase(options ...string) AnswerBase {
	return AnswerBase{Format: MultipleChoice{Options: options}}
}

func (b AnswerBase) clone() AnswerBase {
	if mc, ok := b.Format.(MultipleChoice); ok {
		return MultipleChoiceBase(append([]string(nil), mc.Options...)...)
	}
	return b
}

type answerBaseJSON struct {
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

func (b AnswerBase) MarshalJSON() ([]byte, error) {
	switch f := b.Format.(type) {
	case FreeText:
		return json.Marshal(answerBaseJSON{Type: formatFreeText})
	case MultipleChoice:
		return json.Marshal(answerBaseJSON{Type: formatMultipleChoice, Options: f.Options})
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unknown answer format %T", f)
	}
}

func (b *AnswerBase) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		b.Format = nil
		return nil
	}
	var raw answerBaseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case formatFreeText:
		b.Format = FreeText{}
	case formatMultipleChoice:
		b.Format = MultipleChoice{Options: raw.Options}
	default:
		return fmt.Errorf("unknown answer type %q", raw.Type)
	}
	return nil
}

// SubmittedValue is the closed set of submitted answers: TextAnswer or ChoiceAnswer.
type SubmittedValue interface {
	submittedValue()
}

// TextAnswer answers a free-text question. A nil Text means unanswered.
type TextAnswer struct {
	Text *string
}

// ChoiceAnswer answers a multiple-choice question. A nil Selected means unanswered.
type ChoiceAnswer struct {
	Selected *string
}

func (TextAnswer) submittedValue()   {}
func (ChoiceAnswer) submittedValue() {}

const (
	submittedText   = "text"
	submittedChoice = "choice"
)

// SubmittedAnswer wraps what a student sent. A nil Value means nothing was sent.
//
//	{"type":"text","text":"Paris"}
//	{"type":"choice","selected":"B"}
type SubmittedAnswer struct {
	Value SubmittedValue
}

func Text(s string) SubmittedAnswer {
	return SubmittedAnswer{Value: TextAnswer{Text: &s}}
}

func Choice(s string) SubmittedAnswer {
	return SubmittedAnswer{Value: ChoiceAnswer{Selected: &s}}
}

// Unanswered builds the empty answer matching the question format.
func Unanswered(format AnswerFormat) SubmittedAnswer {
	if _, ok := format.(MultipleChoice); ok {
		return SubmittedAnswer{Value: ChoiceAnswer{}}
	}
	return SubmittedAnswer{Value: TextAnswer{}}
}

type submittedAnswerJSON struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Selected *string `json:"selected,omitempty"`
}

func (a SubmittedAnswer) MarshalJSON() ([]byte, error) {
	switch v := a.Value.(type) {
	case TextAnswer:
		return json.Marshal(submittedAnswerJSON{Type: submittedText, Text: v.Text})
	case ChoiceAnswer:
		return json.Marshal(submittedAnswerJSON{Type: submittedChoice, Selected: v.Selected})
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unknown submitted answer %T", v)
	}
}

func (a *SubmittedAnswer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.Value = nil
		return nil
	}
	var raw submittedAnswerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case submittedText:
		a.Value = TextAnswer{Text: raw.Text}
	case submittedChoice:
		a.Value = ChoiceAnswer{Selected: raw.Selected}
	default:
		return fmt.Errorf("unknown submitted answer type %q", raw.Type)
	}
	return nil
}

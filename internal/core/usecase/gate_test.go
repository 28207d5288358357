package usecase

import (
	"testing"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

func TestParseGatedAnswerAccepted(t *testing.T) {
	got, err := ParseGatedAnswer(`{"status":1,"answer":"the total is 42"}`)
	if err != nil {
		t.Fatalf("ParseGatedAnswer() error = %v", err)
	}
	if !got.Relevant() || got.Answer != "the total is 42" {
		t.Fatalf("unexpected gated answer: %+v", got)
	}
}

func TestParseGatedAnswerIrrelevant(t *testing.T) {
	got, err := ParseGatedAnswer(`{"status":0,"answer":"I'm sorry, I don't have enough information to answer that."}`)
	if err != nil {
		t.Fatalf("ParseGatedAnswer() error = %v", err)
	}
	if got.Relevant() {
		t.Fatalf("expected status 0 to be irrelevant")
	}
	if got.Answer == "" {
		t.Fatalf("expected the refusal text to pass through")
	}
}

func TestParseGatedAnswerStripsFencesAndPadding(t *testing.T) {
	raw := "```json\n{\"status\":1,\"answer\":\"ok\"}\n```"
	got, err := ParseGatedAnswer(raw)
	if err != nil {
		t.Fatalf("ParseGatedAnswer() error = %v", err)
	}
	if got.Status != domain.GateAnswered || got.Answer != "ok" {
		t.Fatalf("unexpected gated answer: %+v", got)
	}
}

func TestParseGatedAnswerMalformedCases(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "plain text answer",
		"missing status": `{"answer":"x"}`,
		"missing answer": `{"status":1}`,
		"bad status":     `{"status":2,"answer":"x"}`,
		"string status":  `{"status":"1","answer":"x"}`,
	}
	for name, raw := range cases {
		if _, err := ParseGatedAnswer(raw); !domain.IsKind(err, domain.ErrMalformedResponse) {
			t.Fatalf("%s: expected ErrMalformedResponse, got %v", name, err)
		}
	}
}

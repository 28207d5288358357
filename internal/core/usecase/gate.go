package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okomarov/mrag-assistant/internal/core/domain"
)

// ParseGatedAnswer parses the model's structured response. The model is asked
// for bare JSON but may fence or pad it, so parsing starts at the outermost
// object. Missing or mistyped fields are a malformed response; the gate is
// the sole authority on whether retrieved context reaches the caller.
func ParseGatedAnswer(raw string) (domain.GatedAnswer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.GatedAnswer{}, domain.WrapError(domain.ErrMalformedResponse, "parse answer", fmt.Errorf("empty model output"))
	}

	var payload struct {
		Status *int    `json:"status"`
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.GatedAnswer{}, domain.WrapError(domain.ErrMalformedResponse, "parse answer", err)
	}
	if payload.Status == nil || payload.Answer == nil {
		return domain.GatedAnswer{}, domain.WrapError(domain.ErrMalformedResponse, "parse answer", fmt.Errorf("status or answer field missing"))
	}
	if *payload.Status != domain.GateIrrelevant && *payload.Status != domain.GateAnswered {
		return domain.GatedAnswer{}, domain.WrapError(domain.ErrMalformedResponse, "parse answer", fmt.Errorf("status out of range: %d", *payload.Status))
	}

	return domain.GatedAnswer{
		Status: *payload.Status,
		Answer: *payload.Answer,
	}, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

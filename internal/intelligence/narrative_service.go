package intelligence

import (
	"context"
	"encoding/json"

	"github.com/mlechner/polier/internal/llm"
)

// NarrativeService generates insight prose from computed facts. A
// narrative is always returned: any LLM failure routes to the
// deterministic fallback, never to the caller as an error.
type NarrativeService interface {
	GeneratePhaseTexts(ctx context.Context, facts PhaseFacts) *NarrativeTexts
	GenerateProjectTexts(ctx context.Context, facts ProjectFacts) *NarrativeTexts
}

type narrativeService struct {
	client  llm.Client
	enabled bool
}

// NewNarrativeService creates a NarrativeService backed by an LLM
// client. With enabled=false every call goes straight to the fallback.
func NewNarrativeService(client llm.Client, enabled bool) NarrativeService {
	return &narrativeService{client: client, enabled: enabled}
}

func (s *narrativeService) GeneratePhaseTexts(ctx context.Context, facts PhaseFacts) *NarrativeTexts {
	if !s.enabled || s.client == nil {
		return DeterministicPhaseTexts(facts)
	}

	factsJSON, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return DeterministicPhaseTexts(facts)
	}

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskPhaseTexts,
		SystemPrompt: phaseTextsSystemPrompt,
		UserPrompt:   "Here are the phase facts:\n\n" + string(factsJSON),
	})
	if err != nil {
		return DeterministicPhaseTexts(facts)
	}

	texts, err := llm.ExtractJSON[NarrativeTexts](resp.Text, ValidateNarrative)
	if err != nil {
		return DeterministicPhaseTexts(facts)
	}
	return &texts
}

func (s *narrativeService) GenerateProjectTexts(ctx context.Context, facts ProjectFacts) *NarrativeTexts {
	if !s.enabled || s.client == nil {
		return DeterministicProjectTexts(facts)
	}

	factsJSON, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return DeterministicProjectTexts(facts)
	}

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskProjectTexts,
		SystemPrompt: projectTextsSystemPrompt,
		UserPrompt:   "Here are the project facts:\n\n" + string(factsJSON),
	})
	if err != nil {
		return DeterministicProjectTexts(facts)
	}

	texts, err := llm.ExtractJSON[NarrativeTexts](resp.Text, ValidateNarrative)
	if err != nil {
		return DeterministicProjectTexts(facts)
	}
	return &texts
}

package generator

import (
	"context"
	"strings"
	"testing"

	"api-param-coverage/internal/config"
	"api-param-coverage/internal/types"
)

func TestGenerateForEndpointTemplateFallback(t *testing.T) {
	// No API key configured: every scenario uses the template rendition.
	gen := NewBDDGenerator(&config.LLMConfig{}, nil)

	meta := EndpointMeta{
		APIName:      "petstore",
		EndpointName: "GET /pets",
		Method:       "GET",
		Path:         "/pets",
	}
	scenarios := []types.Scenario{
		{Assignments: map[string]interface{}{"query.limit": "10"}, Kind: types.ScenarioBaseline},
		{Assignments: map[string]interface{}{"query.limit": "0"}, Kind: types.ScenarioVariation},
		{Assignments: map[string]interface{}{"header.Authorization": "bad"}, Kind: types.ScenarioNegative},
	}

	out := gen.GenerateForEndpoint(context.Background(), meta, scenarios)
	if len(out) != 3 {
		t.Fatalf("generated %d scenarios, want 3", len(out))
	}

	for i, s := range out {
		wantID := []string{"GET /pets_scn_1", "GET /pets_scn_2", "GET /pets_scn_3"}[i]
		if s.ScenarioID != wantID {
			t.Errorf("scenario[%d] id = %s, want %s", i, s.ScenarioID, wantID)
		}
		if !strings.Contains(s.Gherkin, "When I call GET /pets") {
			t.Errorf("scenario[%d] gherkin missing request step:\n%s", i, s.Gherkin)
		}
		if !strings.Contains(s.Gherkin, "curl -X GET /pets") {
			t.Errorf("scenario[%d] gherkin missing curl line:\n%s", i, s.Gherkin)
		}
	}

	if !strings.Contains(out[0].Gherkin, "Scenario: happy path") {
		t.Errorf("baseline title wrong:\n%s", out[0].Gherkin)
	}
	if !strings.Contains(out[1].Gherkin, "Scenario: parameter variation") {
		t.Errorf("variation title wrong:\n%s", out[1].Gherkin)
	}
	if !strings.Contains(out[2].Gherkin, "Scenario: blocked request") {
		t.Errorf("negative title wrong:\n%s", out[2].Gherkin)
	}
	if !strings.Contains(out[2].Gherkin, "error status") {
		t.Errorf("negative expectation wrong:\n%s", out[2].Gherkin)
	}
}

func TestNewBDDGeneratorClientOnlyWithKey(t *testing.T) {
	if g := NewBDDGenerator(&config.LLMConfig{}, nil); g.client != nil {
		t.Error("client constructed without API key")
	}
	if g := NewBDDGenerator(&config.LLMConfig{APIKey: "sk-test"}, nil); g.client == nil {
		t.Error("client missing with API key configured")
	}
}

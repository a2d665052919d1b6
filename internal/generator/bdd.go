package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"api-param-coverage/internal/config"
	"api-param-coverage/internal/logger"
	"api-param-coverage/internal/types"

	openai "github.com/sashabaranov/go-openai"
)

// EndpointMeta identifies the endpoint a scenario set belongs to.
type EndpointMeta struct {
	APIName      string `json:"apiName"`
	EndpointName string `json:"endpointName"`
	Method       string `json:"method"`
	Path         string `json:"path"`
}

// BDDScenario is one generated Gherkin block, identified for CSV export
// and Postman conversion.
type BDDScenario struct {
	ScenarioID string `json:"scenario_id"`
	Gherkin    string `json:"gherkin_and_curl"`
}

// BDDGenerator turns reduced scenarios into Gherkin text. With an API key
// configured it asks the LLM for richer phrasing; without one, or when the
// call fails, it falls back to a deterministic template so the pipeline
// always produces output.
type BDDGenerator struct {
	config *config.LLMConfig
	client *openai.Client
	logger *logger.Logger
}

// NewBDDGenerator creates a generator. The OpenAI client is only
// constructed when an API key is present.
func NewBDDGenerator(cfg *config.LLMConfig, log *logger.Logger) *BDDGenerator {
	g := &BDDGenerator{config: cfg, logger: log}
	if cfg != nil && cfg.APIKey != "" {
		g.client = openai.NewClient(cfg.APIKey)
	}
	return g
}

// GenerateForEndpoint produces one BDD scenario per reduced scenario.
func (g *BDDGenerator) GenerateForEndpoint(ctx context.Context, meta EndpointMeta, scenarios []types.Scenario) []BDDScenario {
	out := make([]BDDScenario, 0, len(scenarios))
	for i, scenario := range scenarios {
		id := fmt.Sprintf("%s_scn_%d", meta.EndpointName, i+1)

		gherkin := ""
		if g.client != nil {
			text, err := g.callLLM(ctx, meta, scenario)
			if g.logger != nil {
				g.logger.LogLLMInteraction("GenerateBDD", map[string]interface{}{
					"endpoint": meta.EndpointName,
					"scenario": scenario.Assignments,
				}, text, err)
			}
			if err == nil {
				gherkin = text
			}
		}
		if gherkin == "" {
			gherkin = templateGherkin(meta, scenario)
		}

		out = append(out, BDDScenario{ScenarioID: id, Gherkin: gherkin})
	}
	return out
}

// callLLM asks the model for a Gherkin rendition of one scenario.
func (g *BDDGenerator) callLLM(ctx context.Context, meta EndpointMeta, scenario types.Scenario) (string, error) {
	assignments, err := json.Marshal(scenario.Assignments)
	if err != nil {
		return "", fmt.Errorf("failed to encode assignments: %w", err)
	}

	prompt := fmt.Sprintf(`Write a Gherkin scenario for testing %s %s.
Scenario kind: %s
Parameter assignments (flattened as "<section>.<field>"): %s

Include Given/When/Then steps and finish with an equivalent curl command.
Respond with plain Gherkin text only.`, meta.Method, meta.Path, scenario.Kind, assignments)

	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       g.config.Model,
			Temperature: float32(g.config.Temperature),
			MaxTokens:   g.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a helpful assistant that writes BDD test scenarios for HTTP APIs. Always respond in the requested format.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// templateGherkin is the deterministic fallback rendition.
func templateGherkin(meta EndpointMeta, scenario types.Scenario) string {
	title := "happy path"
	expect := "Then I should receive 200 OK"
	switch scenario.Kind {
	case types.ScenarioVariation:
		title = "parameter variation"
	case types.ScenarioNegative:
		title = "blocked request"
		expect = "Then I should receive an error status"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", title)
	fmt.Fprintf(&b, "  Given parameters %s\n", formatAssignments(scenario.Assignments))
	fmt.Fprintf(&b, "  When I call %s %s\n", meta.Method, meta.Path)
	fmt.Fprintf(&b, "  %s\n", expect)
	b.WriteString("  And I can run:\n")
	fmt.Fprintf(&b, "    curl -X %s %s\n", meta.Method, meta.Path)
	return b.String()
}

func formatAssignments(assignments map[string]interface{}) string {
	data, err := json.Marshal(assignments)
	if err != nil {
		return fmt.Sprintf("%v", assignments)
	}
	return string(data)
}

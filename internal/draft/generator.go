package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/services/openai"
	"github.com/autopotter/autopotter/internal/utils"
)

// Output is the draft file written after a generation run. The workflow can
// consume it directly instead of regenerating.
type Output struct {
	GeneratedAt  time.Time `json:"generated_at"`
	Prompt       string    `json:"prompt"`
	ParsedOutput List      `json:"parsed_output"`
}

// Generator asks the LLM for a batch of video draft candidates.
type Generator struct {
	svc openai.Servicer
	cfg config.OpenAIConfig
}

// NewGenerator creates a Generator backed by the given completion service.
func NewGenerator(svc openai.Servicer, cfg config.OpenAIConfig) *Generator {
	return &Generator{svc: svc, cfg: cfg}
}

// Generate produces draft candidates for the given prompt. The contextData
// map (file inventory, analytics) is serialized and appended to the developer
// instructions so the model can ground its proposals in real assets.
func (g *Generator) Generate(ctx context.Context, prompt string, contextData map[string]interface{}) (List, error) {
	if prompt == "" {
		return List{}, errors.New("draft prompt is required")
	}

	instructions := g.buildInstructions(contextData)

	utils.LogInfo("Requesting draft candidates from %s", g.cfg.Model)
	content, err := g.svc.GetContent(ctx, []openai.Message{
		{Role: "developer", Content: instructions},
		{Role: "user", Content: prompt},
	}, openai.CompletionOptions{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		JSONOutput:  true,
	})
	if err != nil {
		return List{}, fmt.Errorf("draft generation failed: %w", err)
	}

	list, err := parseList(content)
	if err != nil {
		return List{}, err
	}

	utils.LogSuccess("Generated %d draft candidate(s)", len(list.Videos))
	for i, candidate := range list.Videos {
		utils.LogVerbose("Candidate %d: %s", i+1, candidate.Title)
	}
	return list, nil
}

// buildInstructions assembles the developer message: base instructions from
// config, the contents of any configured include files, and the serialized
// context data.
func (g *Generator) buildInstructions(contextData map[string]interface{}) string {
	var sb strings.Builder
	sb.WriteString(g.cfg.Instructions)

	for key, path := range g.cfg.IncludeFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			utils.LogWarning("Include file %s for %s not readable: %v", path, key, err)
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(strings.ToUpper(key))
		sb.WriteString(":\n")
		sb.Write(content)
	}

	if len(contextData) > 0 {
		if data, err := json.MarshalIndent(contextData, "", "  "); err == nil {
			sb.WriteString("\n\nCONTEXT DATA:\n")
			sb.Write(data)
		} else {
			utils.LogWarning("Failed to serialize context data: %v", err)
		}
	}

	return sb.String()
}

// parseList decodes the model's JSON answer into a List. The model is asked
// for a JSON object, but a brace-slice fallback covers answers wrapped in
// prose despite that.
func parseList(content string) (List, error) {
	var list List
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		sliced := extractJSONObject(content)
		if err2 := json.Unmarshal([]byte(sliced), &list); err2 != nil {
			return List{}, fmt.Errorf("failed to parse draft response: %w", err)
		}
	}
	if len(list.Videos) == 0 {
		return List{}, errors.New("draft response contained no videos")
	}
	return list, nil
}

// SaveOutput writes the generation result to path as indented JSON.
func SaveOutput(path, prompt string, list List) error {
	out := Output{
		GeneratedAt:  time.Now().UTC(),
		Prompt:       prompt,
		ParsedOutput: list,
	}
	if err := utils.WriteJSONFile(path, out); err != nil {
		return fmt.Errorf("failed to save draft output: %w", err)
	}
	utils.LogInfo("Draft output saved to %s", path)
	return nil
}

// LoadOutput reads a previously saved draft output file.
func LoadOutput(path string) (Output, error) {
	var out Output
	if err := utils.ReadJSONFile(path, &out); err != nil {
		return Output{}, err
	}
	if len(out.ParsedOutput.Videos) == 0 {
		return Output{}, fmt.Errorf("draft file %s contains no videos", path)
	}
	return out, nil
}

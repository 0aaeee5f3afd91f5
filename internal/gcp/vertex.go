package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/documentextraction/internal/schema"
)

// --- Extraction Model Prompts ---
const ExtractionSystemPrompt = "You are a document analysis tool. Your task is to read a document and extract a fixed set of properties from it. You must output your response as a single valid JSON object and nothing else."

// VertexConfig selects and tunes the extraction model.
type VertexConfig struct {
	ProjectID       string
	Region          string
	ModelID         string
	Temperature     float32
	MaxOutputTokens int32
}

// VertexClient holds the pre-configured extraction model.
type VertexClient struct {
	ExtractionModel *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates the client and configures the extraction model to
// answer in JSON shaped by def.
func NewVertexClient(ctx context.Context, cfg VertexConfig, def *schema.Definition) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("NewVertexClient: model ID cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(cfg.ModelID)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractionSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(def),
		Temperature:      genai.Ptr(cfg.Temperature),
	}
	if cfg.MaxOutputTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = genai.Ptr(cfg.MaxOutputTokens)
	}
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		ExtractionModel: model,
		baseClient:      baseClient,
	}, nil
}

// ResponseSchema converts the property definition into the structured-output
// schema of the model. Every property is nullable so the model can say "not
// found" instead of inventing a value; required and alwaysInclude properties
// must be present as keys.
func ResponseSchema(def *schema.Definition) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, def.Len()),
	}
	for _, p := range def.Properties() {
		out.Properties[p.Name] = &genai.Schema{
			Type:        genaiType(p.Type),
			Description: p.Description,
			Nullable:    true,
		}
		if p.Required || p.AlwaysInclude {
			out.Required = append(out.Required, p.Name)
		}
	}
	return out
}

func genaiType(t schema.Type) genai.Type {
	switch t {
	case schema.TypeNumber:
		return genai.TypeNumber
	case schema.TypeInteger:
		return genai.TypeInteger
	case schema.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

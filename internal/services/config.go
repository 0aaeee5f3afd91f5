package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Lllllllleong/documentextraction/internal/gcp"
)

// ProcessorConfig holds all configuration for the document-processor service.
// It is read once at cold start and passed to every component that needs it.
type ProcessorConfig struct {
	ProjectID         string
	VertexAIRegion    string
	RecordsCollection string

	ModelID              string
	ModelTemperature     float32
	ModelMaxOutputTokens int32
	ModelTimeout         time.Duration

	FetchTimeout     time.Duration
	StoreTimeout     time.Duration
	MaxDocumentBytes int64

	// SchemaFile and PromptFile override the bundled assets when set.
	SchemaFile string
	PromptFile string

	DuplicateDiscovery bool
}

// loadProcessorConfig loads and validates all necessary environment variables for this service.
func loadProcessorConfig() (*ProcessorConfig, error) {
	config := &ProcessorConfig{
		ProjectID:         gcp.GetEnv("PROJECT_ID", ""),
		VertexAIRegion:    gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		RecordsCollection: gcp.GetEnv("RECORDS_COLLECTION", ""),
		ModelID:           gcp.GetEnv("MODEL_ID", "gemini-1.5-pro"),
		SchemaFile:        gcp.GetEnv("SCHEMA_FILE", ""),
		PromptFile:        gcp.GetEnv("PROMPT_FILE", ""),
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if config.RecordsCollection == "" {
		return nil, fmt.Errorf("RECORDS_COLLECTION environment variable must be set")
	}

	var errs []error
	var err error
	if config.ModelTemperature, err = gcp.GetEnvFloat32("MODEL_TEMPERATURE", 0); err != nil {
		errs = append(errs, err)
	}
	maxTokens, err := gcp.GetEnvInt64("MODEL_MAX_OUTPUT_TOKENS", 4096)
	if err != nil {
		errs = append(errs, err)
	}
	config.ModelMaxOutputTokens = int32(maxTokens)
	if config.ModelTimeout, err = gcp.GetEnvDuration("MODEL_TIMEOUT", 120*time.Second); err != nil {
		errs = append(errs, err)
	}
	if config.FetchTimeout, err = gcp.GetEnvDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if config.StoreTimeout, err = gcp.GetEnvDuration("STORE_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if config.MaxDocumentBytes, err = gcp.GetEnvInt64("MAX_DOCUMENT_BYTES", 20<<20); err != nil {
		errs = append(errs, err)
	}
	if config.DuplicateDiscovery, err = gcp.GetEnvBool("DUPLICATE_DISCOVERY", true); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if config.ModelTemperature < 0 || config.ModelTemperature > 2 {
		return nil, fmt.Errorf("MODEL_TEMPERATURE must be between 0 and 2, got %v", config.ModelTemperature)
	}
	if maxTokens < 0 || maxTokens > 1<<20 {
		return nil, fmt.Errorf("MODEL_MAX_OUTPUT_TOKENS out of range: %d", maxTokens)
	}
	for name, d := range map[string]time.Duration{
		"MODEL_TIMEOUT": config.ModelTimeout,
		"FETCH_TIMEOUT": config.FetchTimeout,
		"STORE_TIMEOUT": config.StoreTimeout,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive", name)
		}
	}
	if config.MaxDocumentBytes <= 0 {
		return nil, fmt.Errorf("MAX_DOCUMENT_BYTES must be positive")
	}
	return config, nil
}

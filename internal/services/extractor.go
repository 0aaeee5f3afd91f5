package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

// ExtractionRequest is one model call: the document and the composed instruction.
type ExtractionRequest struct {
	InstructionText string
	Document        []byte
	MIMEType        string
}

// Extractor asks a model to read a document and returns its raw text answer.
type Extractor interface {
	Extract(ctx context.Context, logCtx *slog.Logger, req ExtractionRequest) (string, error)
}

// VertexExtractor calls a Gemini model on Vertex AI.
type VertexExtractor struct {
	model *genai.GenerativeModel
}

func NewVertexExtractor(model *genai.GenerativeModel) *VertexExtractor {
	return &VertexExtractor{model: model}
}

// Extract sends the document inline together with the instruction text.
func (x *VertexExtractor) Extract(ctx context.Context, logCtx *slog.Logger, req ExtractionRequest) (string, error) {
	start := time.Now()
	resp, err := x.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mediaType(req.MIMEType), Data: req.Document},
		genai.Text(req.InstructionText),
	)
	elapsed := time.Since(start)
	if err != nil {
		logCtx.Error("Call to Vertex AI for extraction failed", "error", err, "elapsedMs", elapsed.Milliseconds())
		return "", fmt.Errorf("%w: GenerateContent: %w", ErrInvocation, err)
	}

	attrs := []any{"elapsedMs", elapsed.Milliseconds()}
	if usage := resp.UsageMetadata; usage != nil {
		attrs = append(attrs,
			"promptTokens", usage.PromptTokenCount,
			"responseTokens", usage.CandidatesTokenCount,
			"totalTokens", usage.TotalTokenCount,
		)
	}
	logCtx.Info("Extraction model responded.", attrs...)

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text (finish reason %s)", ErrInvocation, finishReason(resp))
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return "none"
	}
	return resp.Candidates[0].FinishReason.String()
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Lllllllleong/documentextraction/internal/assets"
	"github.com/Lllllllleong/documentextraction/internal/gcp"
	"github.com/Lllllllleong/documentextraction/internal/models"
	"github.com/Lllllllleong/documentextraction/internal/schema"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const maxLoggedResponse = 2000

// DocumentProcessorFunction turns one uploaded document into one stored record.
type DocumentProcessorFunction struct {
	fetcher     *Fetcher
	extractor   Extractor
	validator   *Validator
	store       RecordStore
	instruction string
	config      ProcessorConfig

	newID func() string
	now   func() time.Time
}

// NewDocumentProcessor reads the environment, loads the schema and prompt
// and creates the Cloud clients. It runs once per instance.
func NewDocumentProcessor(ctx context.Context) (*DocumentProcessorFunction, error) {
	config, err := loadProcessorConfig()
	if err != nil {
		return nil, err
	}
	def, template, err := loadExtractionAssets(config)
	if err != nil {
		return nil, err
	}

	vertexClient, err := gcp.NewVertexClient(ctx, gcp.VertexConfig{
		ProjectID:       config.ProjectID,
		Region:          config.VertexAIRegion,
		ModelID:         config.ModelID,
		Temperature:     config.ModelTemperature,
		MaxOutputTokens: config.ModelMaxOutputTokens,
	}, def)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		vertexClient.Close()
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	records := gcp.NewFirestoreRecords(firestoreClient, config.RecordsCollection)
	reader, err := gcp.NewGCSReader(ctx)
	if err != nil {
		records.Close()
		vertexClient.Close()
		return nil, err
	}

	f, err := newDocumentProcessor(*config, def, template,
		reader,
		NewVertexExtractor(vertexClient.ExtractionModel),
		records,
	)
	if err != nil {
		reader.Close()
		records.Close()
		vertexClient.Close()
		return nil, err
	}
	slog.Info("Document processor initialized.",
		"modelId", config.ModelID,
		"collection", config.RecordsCollection,
		"properties", def.Len(),
		"requiredProperties", def.Required(),
	)
	return f, nil
}

func newDocumentProcessor(config ProcessorConfig, def *schema.Definition, template string, reader ObjectReader, extractor Extractor, store RecordStore) (*DocumentProcessorFunction, error) {
	instruction, err := ComposePrompt(template, def)
	if err != nil {
		return nil, err
	}
	return &DocumentProcessorFunction{
		fetcher:     NewFetcher(reader, config.MaxDocumentBytes),
		extractor:   extractor,
		validator:   NewValidator(def),
		store:       store,
		instruction: instruction,
		config:      config,
		newID:       uuid.NewString,
		now:         time.Now,
	}, nil
}

// loadExtractionAssets returns the property definition and prompt template,
// from the configured files or the bundled defaults.
func loadExtractionAssets(config *ProcessorConfig) (*schema.Definition, string, error) {
	var def *schema.Definition
	var err error
	if config.SchemaFile != "" {
		def, err = schema.Load(config.SchemaFile)
	} else {
		def, err = schema.Parse(assets.DefaultSchema)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load schema: %w", err)
	}

	template := assets.DefaultPrompt
	if config.PromptFile != "" {
		b, err := os.ReadFile(config.PromptFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read prompt file %s: %w", config.PromptFile, err)
		}
		template = string(b)
	}
	return def, template, nil
}

// HandleEvent is the CloudEvent entry point. A nil return acknowledges the
// event; any error is returned for redelivery.
func (f *DocumentProcessorFunction) HandleEvent(ctx context.Context, e cloudevents.Event) error {
	evt, skip, err := DecodeEvent(e)
	logCtx := eventLogger(evt).With("eventType", e.Type())
	if err != nil {
		return Escalate(logCtx, evt, err)
	}
	if skip {
		logCtx.Info("Notification does not describe a new document. Skipping.")
		return nil
	}
	_, err = f.Process(ctx, evt)
	return Escalate(logCtx, evt, err)
}

// Process runs fetch, extraction, validation and storage for one document.
// Errors are classified but not logged as final; HandleEvent escalates them.
func (f *DocumentProcessorFunction) Process(ctx context.Context, evt models.DocumentEvent) (*models.DocumentRecord, error) {
	logCtx := eventLogger(evt)
	logCtx.Info("Processing new GCS object.", "deliveryAttempt", evt.DeliveryAttempt)

	doc, err := f.fetch(ctx, logCtx, evt)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("fileHash", doc.SHA256Hash)
	logCtx.Info("Document fetched.", "sizeBytes", doc.SizeBytes, "contentType", doc.ContentType,
		"generation", doc.Generation, "pageCount", pageCountAttr(doc.PageCount))

	raw, err := f.extract(ctx, logCtx, doc)
	if err != nil {
		return nil, err
	}

	result, err := f.validator.Validate(raw)
	if err != nil {
		logCtx.Warn("Model answer failed validation.", "error", err, "response", truncate(raw, maxLoggedResponse))
		return nil, err
	}
	if len(result.Dropped) > 0 || len(result.Unresolved) > 0 {
		logCtx.Info("Ignored parts of the model answer.", "unknownKeys", result.Dropped, "unresolvedOptional", result.Unresolved)
	}

	rec := BuildRecord(evt, doc, result, f.newID(), f.now())
	logCtx = logCtx.With("recordId", rec.ID)

	if f.config.DuplicateDiscovery {
		f.logDuplicates(ctx, logCtx, rec.FileHash)
	}
	if err := f.write(ctx, rec); err != nil {
		return nil, err
	}
	logCtx.Info("Record stored.", "properties", len(rec.Properties))
	return &rec, nil
}

func (f *DocumentProcessorFunction) fetch(ctx context.Context, logCtx *slog.Logger, evt models.DocumentEvent) (*FetchedDocument, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.config.FetchTimeout)
	defer cancel()
	doc, err := f.fetcher.Fetch(fetchCtx, logCtx, evt)
	return doc, classify(err, ErrFetch)
}

func (f *DocumentProcessorFunction) extract(ctx context.Context, logCtx *slog.Logger, doc *FetchedDocument) (string, error) {
	modelCtx, cancel := context.WithTimeout(ctx, f.config.ModelTimeout)
	defer cancel()
	raw, err := f.extractor.Extract(modelCtx, logCtx, ExtractionRequest{
		InstructionText: f.instruction,
		Document:        doc.Bytes,
		MIMEType:        doc.ContentType,
	})
	if err != nil {
		return "", classify(err, ErrInvocation)
	}
	return raw, nil
}

func (f *DocumentProcessorFunction) write(ctx context.Context, rec models.DocumentRecord) error {
	storeCtx, cancel := context.WithTimeout(ctx, f.config.StoreTimeout)
	defer cancel()
	return classify(f.store.Insert(storeCtx, rec), ErrStore)
}

// logDuplicates reports earlier records of the same bytes. Duplicates are
// stored anyway; a failed lookup never fails the event.
func (f *DocumentProcessorFunction) logDuplicates(ctx context.Context, logCtx *slog.Logger, fileHash string) {
	lookupCtx, cancel := context.WithTimeout(ctx, f.config.StoreTimeout)
	defer cancel()
	ids, err := f.store.FindByHash(lookupCtx, fileHash, duplicateLookupLimit)
	if err != nil {
		logCtx.Warn("Duplicate lookup failed.", "error", err)
		return
	}
	if len(ids) > 0 {
		logCtx.Warn("Document was processed before. Storing another record.", "existingRecordIds", ids)
	}
}

func eventLogger(evt models.DocumentEvent) *slog.Logger {
	return slog.With("eventId", evt.EventID, "gcsBucket", evt.Bucket, "gcsObject", evt.ObjectKey)
}

func pageCountAttr(pages *int) any {
	if pages == nil {
		return nil
	}
	return *pages
}

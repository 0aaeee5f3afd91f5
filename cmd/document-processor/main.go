package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/documentextraction/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	processorInstance *services.DocumentProcessorFunction
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ProcessDocument", processDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// processDocument is the Cloud Function entry point. It receives the bucket
// notification either as a Pub/Sub push or as a direct storage event.
func processDocument(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		processorInstance, initErr = services.NewDocumentProcessor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	return processorInstance.HandleEvent(ctx, e)
}

package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/documentextraction/internal/gcp"
	"github.com/Lllllllleong/documentextraction/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Failure kinds. Every one of them is terminal for the current event: the
// handler returns the error and Pub/Sub redelivers the event until the
// subscription's delivery limit moves it to the dead-letter topic.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrTemplate   = errors.New("invalid prompt template")
	ErrInvocation = errors.New("model invocation failed")
	ErrValidation = errors.New("extraction validation failed")
	ErrStore      = errors.New("store write failed")
	ErrEnvelope   = errors.New("malformed event envelope")
)

// ValidationError reports required properties the model's answer did not
// resolve. Cause is set when the answer could not be used at all.
type ValidationError struct {
	Missing []string
	Cause   error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	if len(e.Missing) > 0 {
		b.WriteString(": missing required properties: ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// classify tags err with kind unless it already carries it.
func classify(err, kind error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// Kind names the failure class of err for logs and alerting.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return "FetchError"
	case errors.Is(err, ErrTemplate):
		return "TemplateError"
	case errors.Is(err, ErrInvocation):
		return "InvocationError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrStore):
		return "StoreError"
	case errors.Is(err, ErrEnvelope):
		return "EnvelopeError"
	default:
		return "UnclassifiedError"
	}
}

// Escalate logs a failed event and returns err unchanged so that it reaches
// the Functions Framework. Nothing is retried here.
func Escalate(logger *slog.Logger, evt models.DocumentEvent, err error) error {
	if err == nil {
		return nil
	}
	attrs := []any{
		"error", err,
		"errorKind", Kind(err),
		"deliveryAttempt", evt.DeliveryAttempt,
	}
	if code := status.Code(err); code != codes.OK && code != codes.Unknown {
		attrs = append(attrs, "grpcCode", code.String())
	}
	if httpStatus := gcp.HTTPStatus(err); httpStatus != 0 {
		attrs = append(attrs, "httpStatus", httpStatus)
	}
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Missing) > 0 {
		attrs = append(attrs, "missingProperties", verr.Missing)
	}
	logger.Error("Document processing failed. Returning error for redelivery.", attrs...)
	return err
}

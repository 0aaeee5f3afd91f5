package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Lllllllleong/documentextraction/internal/models"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

const (
	EventTypePubSubPublished  = "google.cloud.pubsub.topic.v1.messagePublished"
	EventTypeStorageFinalized = "google.cloud.storage.object.v1.finalized"

	storageEventPrefix   = "google.cloud.storage.object.v1."
	notificationFinalize = "OBJECT_FINALIZE"
	attrBucketID         = "bucketId"
	attrObjectID         = "objectId"
	attrEventType        = "eventType"
	attrEventTime        = "eventTime"
)

// DecodeEvent unwraps the transport envelope down to the uploaded object.
// skip is true for notifications that do not describe a newly written
// object (deletes, metadata updates, folder placeholders).
func DecodeEvent(e cloudevents.Event) (evt models.DocumentEvent, skip bool, err error) {
	evt.EventID = e.ID()

	switch {
	case e.Type() == EventTypePubSubPublished:
		skip, err = decodePubSub(e, &evt)
	case e.Type() == EventTypeStorageFinalized:
		err = decodeStorage(e, &evt)
	case strings.HasPrefix(e.Type(), storageEventPrefix):
		skip = true
	default:
		// Unknown wrapper: accept it if the payload is an object resource.
		err = decodeStorage(e, &evt)
	}
	if err != nil || skip {
		return evt, skip, err
	}

	if evt.Bucket == "" || evt.ObjectKey == "" {
		return evt, false, fmt.Errorf("%w: event %s (%s) does not name a bucket and object", ErrEnvelope, e.ID(), e.Type())
	}
	if strings.HasSuffix(evt.ObjectKey, "/") {
		return evt, true, nil
	}
	evt.EventTime = evt.EventTime.UTC()
	return evt, false, nil
}

func decodePubSub(e cloudevents.Event, evt *models.DocumentEvent) (bool, error) {
	var data models.MessagePublishedData
	if err := json.Unmarshal(e.Data(), &data); err != nil {
		return false, fmt.Errorf("%w: json.Unmarshal pubsub payload: %v", ErrEnvelope, err)
	}
	attrs := data.Message.Attributes
	evt.DeliveryAttempt = data.DeliveryAttempt

	if t := attrs[attrEventType]; t != "" && t != notificationFinalize {
		return true, nil
	}

	evt.Bucket = attrs[attrBucketID]
	evt.ObjectKey = attrs[attrObjectID]

	var obj models.StorageObjectData
	if len(data.Message.Data) > 0 {
		if err := json.Unmarshal(data.Message.Data, &obj); err != nil && (evt.Bucket == "" || evt.ObjectKey == "") {
			return false, fmt.Errorf("%w: json.Unmarshal notification body: %v", ErrEnvelope, err)
		}
	}
	if evt.Bucket == "" {
		evt.Bucket = obj.Bucket
	}
	if evt.ObjectKey == "" {
		evt.ObjectKey = obj.Name
	}

	evt.EventTime = firstTime(
		parseTime(attrs[attrEventTime]),
		obj.TimeCreated,
		data.Message.PublishTime,
		e.Time(),
	)
	return false, nil
}

func decodeStorage(e cloudevents.Event, evt *models.DocumentEvent) error {
	var obj models.StorageObjectData
	if err := json.Unmarshal(e.Data(), &obj); err != nil {
		return fmt.Errorf("%w: json.Unmarshal storage payload: %v", ErrEnvelope, err)
	}
	evt.Bucket = obj.Bucket
	evt.ObjectKey = obj.Name
	evt.EventTime = firstTime(e.Time(), obj.TimeCreated, obj.Updated)
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func firstTime(candidates ...time.Time) time.Time {
	for _, t := range candidates {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

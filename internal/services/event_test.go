package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

func newTestEvent(t *testing.T, eventType string, data interface{}) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//test")
	e.SetType(eventType)
	e.SetTime(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	var payload []byte
	switch d := data.(type) {
	case string:
		payload = []byte(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			t.Fatal(err)
		}
		payload = b
	}
	if err := e.SetData(cloudevents.ApplicationJSON, payload); err != nil {
		t.Fatal(err)
	}
	return e
}

func pubsubPayload(attrs map[string]string, body string, attempt int) map[string]interface{} {
	msg := map[string]interface{}{"attributes": attrs, "messageId": "m-1", "publishTime": "2024-06-01T10:00:05Z"}
	if body != "" {
		msg["data"] = base64.StdEncoding.EncodeToString([]byte(body))
	}
	return map[string]interface{}{"message": msg, "subscription": "projects/p/subscriptions/s", "deliveryAttempt": attempt}
}

func TestDecodePubSubNotification(t *testing.T) {
	e := newTestEvent(t, EventTypePubSubPublished, pubsubPayload(map[string]string{
		"bucketId":  "inbox",
		"objectId":  "scans/a b.pdf",
		"eventType": "OBJECT_FINALIZE",
		"eventTime": "2024-06-01T09:59:58.123Z",
	}, `{"bucket": "inbox", "name": "scans/a b.pdf"}`, 3))

	evt, skip, err := DecodeEvent(e)
	if err != nil || skip {
		t.Fatalf("DecodeEvent = skip %v, err %v", skip, err)
	}
	if evt.Bucket != "inbox" || evt.ObjectKey != "scans/a b.pdf" {
		t.Errorf("object = %s/%s", evt.Bucket, evt.ObjectKey)
	}
	if want := time.Date(2024, 6, 1, 9, 59, 58, 123e6, time.UTC); !evt.EventTime.Equal(want) {
		t.Errorf("EventTime = %v, want %v", evt.EventTime, want)
	}
	if evt.DeliveryAttempt != 3 || evt.EventID != "evt-1" {
		t.Errorf("attempt %d, id %s", evt.DeliveryAttempt, evt.EventID)
	}
}

func TestDecodePubSubBodyFallback(t *testing.T) {
	e := newTestEvent(t, EventTypePubSubPublished, pubsubPayload(nil,
		`{"bucket": "inbox", "name": "b.png", "timeCreated": "2024-06-01T08:00:00Z"}`, 0))

	evt, skip, err := DecodeEvent(e)
	if err != nil || skip {
		t.Fatalf("DecodeEvent = skip %v, err %v", skip, err)
	}
	if evt.Bucket != "inbox" || evt.ObjectKey != "b.png" {
		t.Errorf("object = %s/%s", evt.Bucket, evt.ObjectKey)
	}
	if want := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC); !evt.EventTime.Equal(want) {
		t.Errorf("EventTime = %v, want timeCreated", evt.EventTime)
	}
}

func TestDecodeStorageEvent(t *testing.T) {
	e := newTestEvent(t, EventTypeStorageFinalized, map[string]string{"bucket": "inbox", "name": "c.txt"})

	evt, skip, err := DecodeEvent(e)
	if err != nil || skip {
		t.Fatalf("DecodeEvent = skip %v, err %v", skip, err)
	}
	if evt.Bucket != "inbox" || evt.ObjectKey != "c.txt" {
		t.Errorf("object = %s/%s", evt.Bucket, evt.ObjectKey)
	}
	if !evt.EventTime.Equal(e.Time()) {
		t.Errorf("EventTime = %v, want CloudEvent time", evt.EventTime)
	}
}

func TestDecodeEventSkips(t *testing.T) {
	tests := []struct {
		name  string
		event func(t *testing.T) cloudevents.Event
	}{
		{"delete notification", func(t *testing.T) cloudevents.Event {
			return newTestEvent(t, EventTypePubSubPublished, pubsubPayload(map[string]string{
				"bucketId": "inbox", "objectId": "a.pdf", "eventType": "OBJECT_DELETE",
			}, "", 0))
		}},
		{"metadata update", func(t *testing.T) cloudevents.Event {
			return newTestEvent(t, "google.cloud.storage.object.v1.metadataUpdated", map[string]string{"bucket": "inbox", "name": "a.pdf"})
		}},
		{"folder placeholder", func(t *testing.T) cloudevents.Event {
			return newTestEvent(t, EventTypeStorageFinalized, map[string]string{"bucket": "inbox", "name": "scans/"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, skip, err := DecodeEvent(tt.event(t))
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if !skip {
				t.Error("event was not skipped")
			}
		})
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		data      interface{}
	}{
		{"not json", EventTypePubSubPublished, "not json"},
		{"no object", EventTypePubSubPublished, pubsubPayload(map[string]string{"bucketId": "inbox"}, "", 0)},
		{"garbage body", EventTypePubSubPublished, pubsubPayload(nil, "<xml/>", 0)},
		{"storage without name", EventTypeStorageFinalized, map[string]string{"bucket": "inbox"}},
		{"unknown type", "com.example.other", map[string]string{"hello": "world"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeEvent(newTestEvent(t, tt.eventType, tt.data))
			if !errors.Is(err, ErrEnvelope) {
				t.Errorf("error = %v, want ErrEnvelope", err)
			}
		})
	}
}

package models

import "time"

// These structs describe the envelopes in which upload notifications reach
// the document-processor function.

// DocumentEvent is the unit of work: one uploaded object.
type DocumentEvent struct {
	Bucket    string
	ObjectKey string
	EventTime time.Time
	EventID   string

	// DeliveryAttempt is reported by Pub/Sub when a dead-letter policy is
	// configured on the subscription; zero otherwise.
	DeliveryAttempt int
}

// StorageObjectData is the Cloud Storage object resource, as sent in
// google.cloud.storage.object.v1.* events and JSON_API_V1 notifications.
type StorageObjectData struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType,omitempty"`
	Size        string    `json:"size,omitempty"`
	Generation  string    `json:"generation,omitempty"`
	TimeCreated time.Time `json:"timeCreated,omitempty"`
	Updated     time.Time `json:"updated,omitempty"`
}

// PubSubMessage is the message part of a Pub/Sub push or Eventarc payload.
type PubSubMessage struct {
	Data        []byte            `json:"data,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime time.Time         `json:"publishTime,omitempty"`
}

// MessagePublishedData is the data of a
// google.cloud.pubsub.topic.v1.messagePublished CloudEvent.
type MessagePublishedData struct {
	Message         PubSubMessage `json:"message"`
	Subscription    string        `json:"subscription,omitempty"`
	DeliveryAttempt int           `json:"deliveryAttempt,omitempty"`
}

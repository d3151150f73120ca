// Package analytics records search and evaluation events, aggregates them in
// memory and publishes them to Kafka when a producer is configured.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventSearch     EventType = "search"
	EventEvaluation EventType = "evaluation"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Mode      string    `json:"mode"`
	Filtered  bool      `json:"filtered"`
	Stemmed   bool      `json:"stemmed"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type EvaluationEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Mode      string    `json:"mode"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	Retrieved int       `json:"retrieved"`
	Relevant  int       `json:"relevant"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Decode reads the type field of a JSON event and unmarshals the value into
// the matching event struct.
func Decode(value []byte) (any, error) {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(value, &envelope); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	switch envelope.Type {
	case EventSearch:
		var e SearchEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("decoding search event: %w", err)
		}
		return e, nil
	case EventEvaluation:
		var e EvaluationEvent
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("decoding evaluation event: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}

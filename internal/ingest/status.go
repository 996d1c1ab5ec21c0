package ingest

import "errors"

// Status represents the state of one ingestion operation.
type Status string

const (
	// StatusReceived indicates the upload has been accepted at the boundary.
	StatusReceived Status = "RECEIVED"
	// StatusClassified indicates the media kind has been determined.
	StatusClassified Status = "CLASSIFIED"
	// StatusTransforming indicates the image or video engine is running.
	StatusTransforming Status = "TRANSFORMING"
	// StatusPublishing indicates the transformed buffer is being uploaded.
	StatusPublishing Status = "PUBLISHING"
	// StatusPublished indicates the operation completed with a public URL.
	StatusPublished Status = "PUBLISHED"
	// StatusFailed is terminal; the caller must submit a new request to retry.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed. Failure
// is reachable from every non-terminal state; nothing leaves a terminal
// state.
var validTransitions = map[Status][]Status{
	StatusReceived:     {StatusClassified, StatusFailed},
	StatusClassified:   {StatusTransforming, StatusFailed},
	StatusTransforming: {StatusPublishing, StatusFailed},
	StatusPublishing:   {StatusPublished, StatusFailed},
	StatusPublished:    {},
	StatusFailed:       {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

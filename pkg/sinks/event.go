package sinks

import (
	"time"

	"github.com/gamedex-hq/gamedex-catalog-harvester/internal/domain"
)

// Event is the progress payload delivered downstream.
type Event struct {
	RunID     string                  `json:"run_id"`
	Source    string                  `json:"source"`
	Snapshot  domain.ProgressSnapshot `json:"snapshot"`
	EmittedAt time.Time               `json:"emitted_at"`
}

// NewEvent constructs an Event for the given run + snapshot.
func NewEvent(runID, source string, snap domain.ProgressSnapshot) Event {
	return Event{
		RunID:     runID,
		Source:    source,
		Snapshot:  snap,
		EmittedAt: time.Now().UTC(),
	}
}

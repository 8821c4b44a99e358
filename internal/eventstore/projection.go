package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

// RunSummary is a read model of one publish run.
type RunSummary struct {
	RunID         string        `json:"run_id"`
	Run           string        `json:"run"`
	Publication   string        `json:"publication,omitempty"`
	Trigger       string        `json:"trigger,omitempty"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	Files         []string      `json:"files,omitempty"`
	ChangedFiles  int           `json:"changed_files"`
	FailedModules []string      `json:"failed_modules,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// Summarize folds the events of one run into a summary. Unknown event types
// and undecodable payloads are ignored.
func Summarize(events []Event) *RunSummary {
	if len(events) == 0 {
		return nil
	}
	s := &RunSummary{RunID: events[0].RunID(), Status: runStatusRunning, StartedAt: events[0].Timestamp()}
	for _, e := range events {
		switch e.Type() {
		case TypeRunStarted:
			var p RunStartedPayload
			if json.Unmarshal(e.Payload(), &p) == nil {
				s.Run, s.Publication, s.Trigger = p.Run, p.Publication, p.Trigger
			}
			s.StartedAt = e.Timestamp()
		case TypeFilePublished:
			var p FilePublishedPayload
			if json.Unmarshal(e.Payload(), &p) == nil {
				s.Files = append(s.Files, p.URL)
				if p.Changed {
					s.ChangedFiles++
				}
			}
		case TypeModuleFailed:
			var p ModuleFailedPayload
			if json.Unmarshal(e.Payload(), &p) == nil {
				s.FailedModules = append(s.FailedModules, p.Module)
			}
		case TypeRunCompleted:
			finish(s, e.Timestamp(), runStatusCompleted)
		case TypeRunFailed:
			finish(s, e.Timestamp(), runStatusFailed)
			var p RunFailedPayload
			if json.Unmarshal(e.Payload(), &p) == nil {
				s.ErrorMessage = p.Error
			}
		}
	}
	return s
}

func finish(s *RunSummary, at time.Time, status string) {
	s.CompletedAt = &at
	s.Duration = at.Sub(s.StartedAt)
	s.Status = status
}

// History loads summaries of the latest runs, newest first.
func History(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	ids, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*RunSummary, 0, len(ids))
	for _, id := range ids {
		events, err := store.GetByRunID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s := Summarize(events); s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

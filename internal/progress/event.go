package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/redresslabs/redress/internal/rights"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart     Stage = "RUN_START"
	StageRunDone      Stage = "RUN_DONE"
	StageRunError     Stage = "RUN_ERROR"
	StageKeywordStart Stage = "KEYWORD_START"
	StageKeywordDone  Stage = "KEYWORD_DONE"
	StageKeywordError Stage = "KEYWORD_ERROR"
	StageMediaSaved   Stage = "MEDIA_SAVED"
	StageMediaFailed  Stage = "MEDIA_FAILED"
)

// Event captures a single milestone of a collection run.
type Event struct {
	// RunID identifies the collection run that emitted the event.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which run, keyword, or media milestone occurred.
	Stage Stage
	// Category scopes keyword and media events to one complaint vertical.
	Category rights.Category
	// Keyword is the dictionary keyword being collected.
	Keyword string
	// Found counts search hits returned for the keyword.
	Found int64
	// Fresh counts posts stored for the first time.
	Fresh int64
	// Skipped counts posts dropped as duplicates or unusable.
	Skipped int64
	// Bytes carries the payload size for stored media.
	Bytes int64
	// Dur captures execution latency for keyword and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageKeywordStart, StageKeywordDone, StageKeywordError:
		if e.Category == "" {
			return errors.New("keyword stages require category")
		}
		if e.Keyword == "" {
			return errors.New("keyword stages require keyword")
		}
	case StageMediaSaved, StageMediaFailed:
		if e.Category == "" {
			return errors.New("media stages require category")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

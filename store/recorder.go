package store

import (
	"errors"
	"fmt"

	"github.com/brensch/demonsnake/session"
)

// Recorder is the session.RunRecorder of the binaries. It writes every
// finished run to the history log and the archive, whichever are set.
type Recorder struct {
	Source  string
	Log     *RunLog
	Archive *Archive
}

var _ session.RunRecorder = (*Recorder)(nil)

func (r *Recorder) RecordRun(rec session.RunRecord) error {
	row := RowFromRecord(rec, r.Source)

	var errs []error
	if r.Log != nil {
		if err := r.Log.Append(row); err != nil {
			errs = append(errs, fmt.Errorf("run log: %w", err))
		}
	}
	if r.Archive != nil {
		if err := r.Archive.Add(row); err != nil {
			errs = append(errs, fmt.Errorf("run archive: %w", err))
		}
	}
	return errors.Join(errs...)
}

package execution

import "time"

// Record is the persisted summary of a finished process
type Record struct {
	ID            string    `json:"id"`
	Graph         string    `json:"graph"`
	Entry         string    `json:"entry"`
	State         string    `json:"state"`
	Error         string    `json:"error,omitempty"`
	CleanupErrors []string  `json:"cleanupErrors,omitempty"`
	Jobs          int       `json:"jobs"`
	FailedJobs    int       `json:"failedJobs"`
	Escalations   int       `json:"escalations"`
	CreatedAt     time.Time `json:"createdAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	DurationMs    int64     `json:"durationMs"`
}

// NewRecord summarises a finished process
func NewRecord(process *Process, outcome *Outcome) *Record {
	snapshot := process.Progress.Snapshot()
	ret := &Record{
		ID:          process.ID,
		Graph:       process.Graph.Name,
		Entry:       process.Entry,
		State:       string(outcome.State),
		Jobs:        snapshot.TotalJobs,
		FailedJobs:  snapshot.FailedJobs,
		Escalations: snapshot.Escalations,
		CreatedAt:   process.CreatedAt,
		FinishedAt:  process.CreatedAt.Add(outcome.TimeTaken),
		DurationMs:  outcome.TimeTaken.Milliseconds(),
	}
	if outcome.Err != nil {
		ret.Error = outcome.Err.Error()
	}
	for _, err := range outcome.CleanupErrors {
		ret.CleanupErrors = append(ret.CleanupErrors, err.Error())
	}
	return ret
}

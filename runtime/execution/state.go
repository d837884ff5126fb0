package execution

// JobState is the position of a job in its container state machine
type JobState int

const (
	JobStateCreated JobState = iota
	JobStateLoadingResources
	JobStateRunningPreDuties
	JobStateExecuting
	JobStateRunningPostDuties
	JobStateCompleting
	JobStateContinued
	JobStateSpawned
	JobStateEscalated
	JobStateTerminal
)

var jobStateNames = [...]string{
	"created",
	"loadingResources",
	"runningPreDuties",
	"executing",
	"runningPostDuties",
	"completing",
	"continued",
	"spawned",
	"escalated",
	"terminal",
}

func (s JobState) String() string {
	if int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return "unknown"
}

// IsFinal returns true for states a job never leaves
func (s JobState) IsFinal() bool {
	return s >= JobStateContinued
}

// ProcessState is the state of a process
type ProcessState string

const (
	StateRunning   ProcessState = "running"
	StateCompleted ProcessState = "completed"
	StateFailed    ProcessState = "failed"
)

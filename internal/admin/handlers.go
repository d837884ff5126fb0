package admin

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
)

// ProcessView is the JSON view of a live process
type ProcessView struct {
	ID            string    `json:"id"`
	Graph         string    `json:"graph"`
	Entry         string    `json:"entry"`
	State         string    `json:"state"`
	CreatedAt     time.Time `json:"createdAt"`
	TotalJobs     int       `json:"totalJobs"`
	CompletedJobs int       `json:"completedJobs"`
	FailedJobs    int       `json:"failedJobs"`
	RunningJobs   int       `json:"runningJobs"`
	WaitingJobs   int       `json:"waitingJobs"`
	LiveThreads   int       `json:"liveThreads"`
	Escalations   int       `json:"escalations"`
}

func newProcessView(process *execution.Process) *ProcessView {
	snapshot := process.Progress.Snapshot()
	return &ProcessView{
		ID:            process.ID,
		Graph:         process.Graph.Name,
		Entry:         process.Entry,
		State:         string(process.State()),
		CreatedAt:     process.CreatedAt,
		TotalJobs:     snapshot.TotalJobs,
		CompletedJobs: snapshot.CompletedJobs,
		FailedJobs:    snapshot.FailedJobs,
		RunningJobs:   snapshot.RunningJobs,
		WaitingJobs:   snapshot.WaitingJobs,
		LiveThreads:   snapshot.LiveThreads,
		Escalations:   snapshot.Escalations,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := s.processes.List(r.Context(), stateParameters(r)...)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]*ProcessView, 0, len(processes))
	for _, process := range processes {
		views = append(views, newProcessView(process))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.Before(views[j].CreatedAt) })
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	process, err := s.processes.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProcessView(process))
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	if err := s.interrupter.Interrupt(r.Context(), chi.URLParam(r, "id"), ErrInterrupted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "interrupted"})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.List(r.Context(), stateParameters(r)...)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*execution.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.records.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// stateParameters maps ?state=a,b to a State filter
func stateParameters(r *http.Request) []*dao.Parameter {
	state := r.URL.Query().Get("state")
	if state == "" {
		return nil
	}
	return []*dao.Parameter{dao.NewStateParameter(strings.Split(state, ",")...)}
}

package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobflow/model/graph"
)

type stubContext struct {
	graph.JobContext
}

func (s *stubContext) ProcessID() string { return "p" }
func (s *stubContext) ThreadID() string  { return "t" }

func TestService_Execute(t *testing.T) {
	boom := errors.New("boom")
	testCases := []struct {
		description string
		job         *graph.Job
		expectErr   error
		expectPanic bool
	}{
		{description: "no logic", job: graph.NewJob("noop", nil)},
		{description: "success", job: graph.NewJob("ok", func(ctx context.Context, job graph.JobContext) error { return nil })},
		{description: "error", job: graph.NewJob("err", func(ctx context.Context, job graph.JobContext) error { return boom }), expectErr: boom},
		{description: "panic", job: graph.NewJob("panic", func(ctx context.Context, job graph.JobContext) error { panic("bad state") }), expectPanic: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			var observed []error
			srv := New(WithListener(func(job *graph.Job, jobCtx graph.JobContext, err error) {
				observed = append(observed, err)
			}))
			err := srv.Execute(context.Background(), testCase.job, &stubContext{})
			require.Len(t, observed, 1)
			assert.Equal(t, err, observed[0])
			switch {
			case testCase.expectPanic:
				var panicErr *PanicError
				require.ErrorAs(t, err, &panicErr)
				assert.Equal(t, "bad state", panicErr.Value)
			case testCase.expectErr != nil:
				assert.ErrorIs(t, err, testCase.expectErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

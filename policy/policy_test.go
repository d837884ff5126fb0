package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Admit(t *testing.T) {
	testCases := []struct {
		name      string
		policy    *Policy
		job       string
		expectErr bool
	}{
		{name: "nil policy", policy: nil, job: "any"},
		{name: "auto", policy: &Policy{Mode: ModeAuto}, job: "any"},
		{name: "deny", policy: &Policy{Mode: ModeDeny}, job: "any", expectErr: true},
		{name: "blocked", policy: &Policy{BlockList: []string{"Charge"}}, job: "charge", expectErr: true},
		{name: "not in allow list", policy: &Policy{AllowList: []string{"read"}}, job: "write", expectErr: true},
		{name: "in allow list", policy: &Policy{AllowList: []string{"read"}}, job: "READ"},
		{name: "ask approved", policy: &Policy{Mode: ModeAsk, Ask: func(ctx context.Context, job string, parameter interface{}, p *Policy) bool {
			return true
		}}, job: "x"},
		{name: "ask without func", policy: &Policy{Mode: ModeAsk}, job: "x", expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Admit(context.Background(), tc.job, nil)
			if tc.expectErr {
				assert.True(t, errors.Is(err, ErrDenied))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPolicy_ConfigRoundTrip(t *testing.T) {
	p := &Policy{Mode: ModeAuto, AllowList: []string{"a"}, BlockList: []string{"b"}}
	restored := FromConfig(ToConfig(p))
	assert.Equal(t, p.Mode, restored.Mode)
	assert.Equal(t, p.AllowList, restored.AllowList)
	assert.Equal(t, p.BlockList, restored.BlockList)
	assert.Nil(t, FromContext(context.Background()))
	assert.Equal(t, p, FromContext(WithPolicy(context.Background(), p)))
}

package resize

import (
	"context"
	"errors"
	"testing"

	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SubmitResize(ctx context.Context, vmID, flavorID string) dispatcher.Result {
	return m.Called(ctx, vmID, flavorID).Get(0).(dispatcher.Result)
}

func (m *MockDispatcher) ConfirmResize(ctx context.Context, vmID string) dispatcher.Result {
	return m.Called(ctx, vmID).Get(0).(dispatcher.Result)
}

func (m *MockDispatcher) RevertResize(ctx context.Context, vmID string) dispatcher.Result {
	return m.Called(ctx, vmID).Get(0).(dispatcher.Result)
}

func ok() dispatcher.Result { return dispatcher.Result{Outcome: dispatcher.OutcomeOK} }

func outcome(o dispatcher.Outcome, msg string) dispatcher.Result {
	return dispatcher.Result{Outcome: o, Message: msg}
}

func TestDraft_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		draft   Draft
		wantErr bool
	}{
		{"valid", Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"}, false},
		{"same flavor", Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-small"}, true},
		{"no destination", Draft{VMID: "vm-1", FromFlavorID: "f-small"}, true},
		{"no origin", Draft{VMID: "vm-1", ToFlavorID: "f-large"}, true},
		{"no vm", Draft{FromFlavorID: "f-small", ToFlavorID: "f-large"}, true},
	}
	for _, tc := range testCases {
		err := tc.draft.Validate()
		if tc.wantErr {
			assert.ErrorIs(t, err, apierror.ErrValidationFailed, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
	}
}

func TestWorkflow_SameFlavorNeverDispatches(t *testing.T) {
	t.Parallel()

	d := new(MockDispatcher)
	w := NewWorkflow(Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-small"}, d)

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, w.State())
	d.AssertNotCalled(t, "SubmitResize", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_Submit(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		result    dispatcher.Result
		wantState State
		wantError string
	}{
		{"accepted", ok(), StateSubmitted, ""},
		{"conflict", outcome(dispatcher.OutcomeConflict, "vm-1 is busy"), StateIdle, "vm-1 is busy"},
		{"busy", outcome(dispatcher.OutcomeBusy, "already in progress"), StateIdle, "already in progress"},
		{"failed", outcome(dispatcher.OutcomeFailed, "Failed to resize vm-1: no host"), StateIdle, "Failed to resize vm-1: no host"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := new(MockDispatcher)
			d.On("SubmitResize", mock.Anything, "vm-1", "f-large").Return(tc.result).Once()
			w := NewWorkflow(Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"}, d)

			result, err := w.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.result.Outcome, result.Outcome)

			status := w.Status()
			assert.Equal(t, tc.wantState, status.State)
			assert.Equal(t, tc.wantError, status.LastError)
			assert.Equal(t, "f-large", status.Draft.ToFlavorID)
			d.AssertExpectations(t)
		})
	}
}

func TestWorkflow_ConfirmAndRevert(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		method    string
		act       func(w *Workflow, ctx context.Context) (dispatcher.Result, error)
		result    dispatcher.Result
		wantState State
	}{
		{"confirm ok", "ConfirmResize", (*Workflow).Confirm, ok(), StateConfirmed},
		{"revert ok", "RevertResize", (*Workflow).Revert, ok(), StateReverted},
		{"confirm conflict", "ConfirmResize", (*Workflow).Confirm, outcome(dispatcher.OutcomeConflict, "busy"), StateSubmitted},
		{"revert failed", "RevertResize", (*Workflow).Revert, outcome(dispatcher.OutcomeFailed, "boom"), StateSubmitted},
		{"confirm busy", "ConfirmResize", (*Workflow).Confirm, outcome(dispatcher.OutcomeBusy, "already in progress"), StateSubmitted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := new(MockDispatcher)
			d.On("SubmitResize", mock.Anything, "vm-1", "f-large").Return(ok()).Once()
			d.On(tc.method, mock.Anything, "vm-1").Return(tc.result).Once()
			w := NewWorkflow(Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"}, d)

			_, err := w.Submit(context.Background())
			require.NoError(t, err)
			_, err = tc.act(w, context.Background())
			require.NoError(t, err)

			assert.Equal(t, tc.wantState, w.State())
			d.AssertExpectations(t)
		})
	}
}

func TestWorkflow_InvalidTransitions(t *testing.T) {
	t.Parallel()

	d := new(MockDispatcher)
	w := NewWorkflow(Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"}, d)

	_, err := w.Confirm(context.Background())
	assert.ErrorIs(t, err, apierror.ErrValidationFailed)
	_, err = w.Revert(context.Background())
	assert.ErrorIs(t, err, apierror.ErrValidationFailed)

	d.On("SubmitResize", mock.Anything, "vm-1", "f-large").Return(ok()).Once()
	d.On("ConfirmResize", mock.Anything, "vm-1").Return(ok()).Once()
	_, err = w.Submit(context.Background())
	require.NoError(t, err)
	_, err = w.Submit(context.Background())
	assert.Error(t, err)
	_, err = w.Confirm(context.Background())
	require.NoError(t, err)

	// 终态之后不能再回滚
	_, err = w.Revert(context.Background())
	assert.Error(t, err)
	assert.True(t, w.State().Terminal())
	d.AssertExpectations(t)
}

func TestManager(t *testing.T) {
	t.Parallel()

	d := new(MockDispatcher)
	d.On("SubmitResize", mock.Anything, "vm-1", "f-large").Return(ok()).Once()
	d.On("RevertResize", mock.Anything, "vm-1").Return(ok()).Once()
	d.On("SubmitResize", mock.Anything, "vm-1", "f-xlarge").Return(ok()).Once()
	m := NewManager(d)
	ctx := context.Background()

	_, err := m.Get("vm-1")
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	w, result, err := m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"})
	require.NoError(t, err)
	require.True(t, result.OK())
	assert.Equal(t, StateSubmitted, w.State())

	// 等待确认期间不能开始新的调整
	_, _, err = m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-xlarge"})
	assert.True(t, errors.Is(err, apierror.ErrOperationInProgress))

	_, result, err = m.Revert(ctx, "vm-1")
	require.NoError(t, err)
	require.True(t, result.OK())

	w2, _, err := m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-xlarge"})
	require.NoError(t, err)
	assert.NotSame(t, w, w2)
	got, err := m.Get("vm-1")
	require.NoError(t, err)
	assert.Same(t, w2, got)
	d.AssertExpectations(t)
}

func TestManager_SubmitInFlightKeepsWorkflow(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	d := new(MockDispatcher)
	d.On("SubmitResize", mock.Anything, "vm-1", "f-large").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(ok()).Once()
	d.On("ConfirmResize", mock.Anything, "vm-1").Return(ok()).Once()
	m := NewManager(d)
	ctx := context.Background()

	type submitted struct {
		w      *Workflow
		result dispatcher.Result
		err    error
	}
	first := make(chan submitted, 1)
	go func() {
		w, result, err := m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"})
		first <- submitted{w, result, err}
	}()
	<-started

	inFlight, err := m.Get("vm-1")
	require.NoError(t, err)
	assert.True(t, inFlight.Busy())
	assert.True(t, inFlight.Status().InFlight)

	// 第一次提交尚未返回，第二次提交既不能替换工作流也不能发出请求
	_, _, err = m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-xlarge"})
	assert.ErrorIs(t, err, apierror.ErrOperationInProgress)
	_, err = m.Begin(Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-xlarge"})
	assert.ErrorIs(t, err, apierror.ErrOperationInProgress)
	_, err = inFlight.Submit(ctx)
	assert.ErrorIs(t, err, apierror.ErrOperationInProgress)
	_, _, err = m.Confirm(ctx, "vm-1")
	assert.ErrorIs(t, err, apierror.ErrOperationInProgress)

	close(release)
	res := <-first
	require.NoError(t, res.err)
	require.True(t, res.result.OK())

	got, err := m.Get("vm-1")
	require.NoError(t, err)
	assert.Same(t, res.w, got)
	status := got.Status()
	assert.Equal(t, StateSubmitted, status.State)
	assert.False(t, status.InFlight)
	assert.Equal(t, "f-large", status.Draft.ToFlavorID)

	_, result, err := m.Confirm(ctx, "vm-1")
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, StateConfirmed, got.State())
	d.AssertNumberOfCalls(t, "SubmitResize", 1)
	d.AssertExpectations(t)
}

func TestManager_InvalidDraftKeepsExisting(t *testing.T) {
	t.Parallel()

	d := new(MockDispatcher)
	d.On("SubmitResize", mock.Anything, "vm-1", "f-large").Return(ok()).Once()
	d.On("ConfirmResize", mock.Anything, "vm-1").Return(ok()).Once()
	m := NewManager(d)
	ctx := context.Background()

	w, _, err := m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-small", ToFlavorID: "f-large"})
	require.NoError(t, err)
	_, _, err = m.Confirm(ctx, "vm-1")
	require.NoError(t, err)

	_, _, err = m.Submit(ctx, Draft{VMID: "vm-1", FromFlavorID: "f-large", ToFlavorID: "f-large"})
	assert.ErrorIs(t, err, apierror.ErrValidationFailed)
	got, err := m.Get("vm-1")
	require.NoError(t, err)
	assert.Same(t, w, got)
	d.AssertExpectations(t)
}

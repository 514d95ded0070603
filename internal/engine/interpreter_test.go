package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/input"
	"github.com/roach88/chatplay/internal/testutil"
)

// recordingObserver collects Executed callbacks.
type recordingObserver struct {
	categories []string
	actions    []action.Action
	times      []time.Time
}

func (o *recordingObserver) Executed(category string, a action.Action, at time.Time) {
	o.categories = append(o.categories, category)
	o.actions = append(o.actions, a)
	o.times = append(o.times, at)
}

func newTestInterpreter(t *testing.T) (*Interpreter, *input.Recorder, *testutil.FakeClock) {
	t.Helper()
	rec := input.NewRecorder()
	clock := testutil.NewFakeClock()
	return NewInterpreter("test", rec, Options{Clock: clock}), rec, clock
}

func kd(code action.KeyCode) action.Action { return action.KeyDown{Code: code} }
func ku(code action.KeyCode) action.Action { return action.KeyUp{Code: code} }

func seq(actions ...action.Action) action.Sequence {
	return action.Sequence{Actions: actions}
}

func atomic(actions ...action.Action) action.AtomicSequence {
	return action.AtomicSequence{Actions: actions}
}

func waitMs(ms int) action.Action {
	return action.WaitFor{Duration: time.Duration(ms) * time.Millisecond}
}

func TestStep_EmptyBufferIsNoop(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	var buf []action.Container
	require.NoError(t, in.Step(&buf))
	require.NoError(t, in.Step(&buf))

	assert.Empty(t, buf)
	assert.Empty(t, rec.Calls())
}

func TestStep_LeafExecutes(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	buf := []action.Container{
		action.NewContainer(kd(1), action.PauseNone),
		action.NewContainer(action.MoveMouseRelative{DX: 3, DY: -2}, action.PauseNone),
	}

	require.NoError(t, in.Step(&buf))
	assert.Equal(t, []action.Action{kd(1)}, rec.Calls())
	assert.Len(t, buf, 1)

	require.NoError(t, in.Step(&buf))
	assert.Equal(t, []action.Action{kd(1), action.MoveMouseRelative{DX: 3, DY: -2}}, rec.Calls())
	assert.Empty(t, buf)
}

func TestStep_SequenceOneLeafPerStep(t *testing.T) {
	tests := []struct {
		name   string
		leaves []action.Action
	}{
		{"single", []action.Action{kd(1)}},
		{"press release", []action.Action{kd(17), ku(17)}},
		{"mixed", []action.Action{kd(1), action.MoveMouseRelative{DX: 1, DY: 1}, ku(1), kd(2), ku(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, rec, _ := newTestInterpreter(t)
			buf := []action.Container{action.NewContainer(seq(tt.leaves...), action.PauseNone)}

			for i := range tt.leaves {
				require.NoError(t, in.Step(&buf))
				assert.Equal(t, tt.leaves[:i+1], rec.Calls(), "after step %d", i+1)
			}
			assert.Empty(t, buf)
		})
	}
}

func TestStep_SequenceKeepsRemainderBehindHead(t *testing.T) {
	in, _, _ := newTestInterpreter(t)

	buf := []action.Container{
		action.NewContainer(seq(kd(1), kd(2), kd(3)), action.PauseWhileButtonHeld),
		action.NewContainer(kd(9), action.PauseNone),
	}

	require.NoError(t, in.Step(&buf))

	require.Len(t, buf, 2)
	assert.Equal(t, seq(kd(2), kd(3)), buf[0].Action)
	assert.Equal(t, action.PauseWhileButtonHeld, buf[0].Pause, "remainder inherits pause condition")
	assert.Equal(t, kd(9), buf[1].Action)
}

func TestStep_NestedSequenceUnrollsInSameStep(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	buf := []action.Container{action.NewContainer(seq(seq(kd(1), kd(2)), kd(3)), action.PauseNone)}

	require.NoError(t, in.Step(&buf))

	assert.Equal(t, []action.Action{kd(1)}, rec.Calls())
	require.Len(t, buf, 2)
	assert.Equal(t, seq(kd(2)), buf[0].Action)
	assert.Equal(t, seq(kd(3)), buf[1].Action)

	require.NoError(t, in.Step(&buf))
	require.NoError(t, in.Step(&buf))
	assert.Equal(t, []action.Action{kd(1), kd(2), kd(3)}, rec.Calls())
	assert.Empty(t, buf)
}

func TestStep_EmptySequenceVanishes(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	buf := []action.Container{action.NewContainer(seq(), action.PauseNone)}
	require.NoError(t, in.Step(&buf))

	assert.Empty(t, buf)
	assert.Empty(t, rec.Calls())
}

func TestStep_AtomicSequenceRunsInOneStep(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	buf := []action.Container{action.NewContainer(atomic(kd(17), kd(70), ku(17)), action.PauseWhileButtonHeld)}

	require.NoError(t, in.Step(&buf))

	assert.Equal(t, []action.Action{kd(17), kd(70), ku(17)}, rec.Calls())
	assert.Empty(t, buf)
	assert.Equal(t, int64(0), rec.Polls(), "no pause checks inside an atomic group")
}

func TestStep_AtomicSequenceSkipsWrongNesting(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	buf := []action.Container{action.NewContainer(
		atomic(kd(1), waitMs(10), seq(kd(5)), atomic(kd(6)), action.WaitUntil{Deadline: testutil.Epoch}, kd(2)),
		action.PauseNone,
	)}

	err := in.Step(&buf)

	require.Error(t, err)
	assert.True(t, IsNestingError(err))
	assert.Contains(t, err.Error(), "action=sequence (kd5)")
	assert.Contains(t, err.Error(), "action=wait_for w10")
	assert.Contains(t, err.Error(), "action=atomic_sequence ~kd6~")
	assert.Equal(t, []action.Action{kd(1), kd(2)}, rec.Calls(), "valid leaves still execute")
	assert.Empty(t, buf, "nothing is retried")
}

func TestStep_WaitForBecomesWaitUntil(t *testing.T) {
	in, rec, clock := newTestInterpreter(t)

	buf := []action.Container{action.NewContainer(waitMs(1000), action.PauseWhileButtonHeld)}
	require.NoError(t, in.Step(&buf))

	require.Len(t, buf, 1)
	assert.Equal(t, action.WaitUntil{Deadline: clock.Now().Add(time.Second)}, buf[0].Action)
	assert.Equal(t, action.PauseWhileButtonHeld, buf[0].Pause)
	assert.Empty(t, rec.Calls())
}

func TestStep_WaitUntilGate(t *testing.T) {
	in, _, clock := newTestInterpreter(t)

	deadline := clock.Now().Add(500 * time.Millisecond)
	buf := []action.Container{
		action.NewContainer(action.WaitUntil{Deadline: deadline}, action.PauseNone),
		action.NewContainer(kd(1), action.PauseNone),
	}

	require.NoError(t, in.Step(&buf))
	require.Len(t, buf, 2, "pending gate stays at the head")
	assert.Equal(t, action.WaitUntil{Deadline: deadline}, buf[0].Action)

	clock.Advance(499 * time.Millisecond)
	require.NoError(t, in.Step(&buf))
	require.Len(t, buf, 2)

	clock.Advance(time.Millisecond)
	require.NoError(t, in.Step(&buf))
	require.Len(t, buf, 1, "satisfied gate vanishes")
	assert.Equal(t, kd(1), buf[0].Action)
}

func TestStep_UpWaitDownScenario(t *testing.T) {
	in, rec, clock := newTestInterpreter(t)
	obs := &recordingObserver{}
	in.observer = obs

	buf := []action.Container{action.NewContainer(seq(kd(38), waitMs(1000), kd(40)), action.PauseNone)}

	// Step 1: unroll and fire kd38 in the same step.
	require.NoError(t, in.Step(&buf))
	assert.Equal(t, []action.Action{kd(38)}, rec.Calls())
	require.Len(t, buf, 1)
	assert.Equal(t, seq(waitMs(1000), kd(40)), buf[0].Action)

	// Drive the buffer like a runner would, 10ms per step.
	for i := 0; i < 500 && len(buf) > 0; i++ {
		clock.Advance(10 * time.Millisecond)
		require.NoError(t, in.Step(&buf))
	}

	require.Empty(t, buf)
	assert.Equal(t, []action.Action{kd(38), kd(40)}, rec.Calls())
	require.Len(t, obs.times, 2)
	assert.GreaterOrEqual(t, obs.times[1].Sub(obs.times[0]), time.Second)
}

func TestStep_ObserverSeesCategoryAndTime(t *testing.T) {
	rec := input.NewRecorder()
	clock := testutil.NewFakeClock()
	obs := &recordingObserver{}
	in := NewInterpreter("camera", rec, Options{Clock: clock, Observer: obs})

	buf := []action.Container{action.NewContainer(atomic(kd(1), ku(1)), action.PauseNone)}
	require.NoError(t, in.Step(&buf))

	assert.Equal(t, []string{"camera", "camera"}, obs.categories)
	assert.Equal(t, []action.Action{kd(1), ku(1)}, obs.actions)
	assert.Equal(t, []time.Time{testutil.Epoch, testutil.Epoch}, obs.times)
}

func TestStep_DoesNotMutateCompiledTree(t *testing.T) {
	in, _, _ := newTestInterpreter(t)

	tree := seq(kd(1), waitMs(5), kd(2))
	buf := []action.Container{action.NewContainer(tree, action.PauseNone)}

	require.NoError(t, in.Step(&buf))
	require.NoError(t, in.Step(&buf))

	assert.Equal(t, seq(kd(1), waitMs(5), kd(2)), tree)
}

func TestExecute_NonLeafIsUnexecutable(t *testing.T) {
	in, rec, _ := newTestInterpreter(t)

	err := in.execute(waitMs(10))

	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeUnexecutable))
	assert.Empty(t, rec.Calls())
}

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions() []Question {
	return []Question{
		{ID: 1, Text: "q1", Options: []string{"a", "b", "c"}},
		{ID: 2, Text: "q2", Options: []string{"a", "b"}},
		{ID: 3, Text: "q3", Options: []string{"a", "b", "c", "d"}},
	}
}

// fakeClock 可手动推进的时钟
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAttempt(clock *fakeClock) *Attempt {
	return NewAttempt(threeQuestions(), WithClock(clock.now))
}

func TestAttemptLifecycle(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)

	assert.Equal(t, PhaseNotStarted, a.Phase())
	_, ok := a.CurrentQuestion()
	assert.False(t, ok)

	require.NoError(t, a.Start())
	assert.Equal(t, PhaseInProgress, a.Phase())
	assert.True(t, a.Focus().Active())
	assert.Error(t, a.Start(), "repeated start must fail")

	q, ok := a.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, uint(1), q.ID)
}

func TestAdvanceWithoutSelectionIsNoOp(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	_, err := a.Advance()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, 0, a.CurrentIndex(), "failed advance must not move the cursor")
	assert.Equal(t, PhaseInProgress, a.Phase())
}

func TestSelectOverwritesPreviousChoice(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	require.NoError(t, a.SelectOption(0))
	require.NoError(t, a.SelectOption(2))

	idx, ok := a.Selected()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestSelectOptionOutOfRange(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	assert.ErrorIs(t, a.SelectOption(3), ErrOptionOutOfRange)
	assert.ErrorIs(t, a.SelectOption(-1), ErrOptionOutOfRange)
}

func TestTimingPerQuestion(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	// 第一题耗时 5 秒
	require.NoError(t, a.SelectOption(0))
	clock.advance(5 * time.Second)
	out, err := a.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)

	// 第二题立即作答，耗时向上取 1 秒
	require.NoError(t, a.SelectOption(1))
	out, err = a.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)

	// 最后一题
	require.NoError(t, a.SelectOption(3))
	clock.advance(2 * time.Second)
	out, err = a.Advance()
	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, out)

	payload, err := a.Payload()
	require.NoError(t, err)
	assert.Equal(t, 5, payload.Times[1])
	assert.Equal(t, 1, payload.Times[2], "sub-second answers count as one second")
	assert.Equal(t, 2, payload.Times[3])
}

func TestPayloadRequiresEveryQuestion(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	require.NoError(t, a.SelectOption(0))
	_, err := a.Payload()
	assert.ErrorIs(t, err, ErrNotComplete)
}

func TestPayloadExactlyOnePerQuestion(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	for i := 0; i < 3; i++ {
		require.NoError(t, a.SelectOption(0))
		_, err := a.Advance()
		require.NoError(t, err)
	}

	payload, err := a.Payload()
	require.NoError(t, err)
	assert.Len(t, payload.Answers, 3)
	assert.Len(t, payload.Times, 3)
	for _, q := range threeQuestions() {
		assert.Contains(t, payload.Answers, q.ID)
		assert.Contains(t, payload.Times, q.ID)
	}
}

func TestApplyResultGeneration(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())

	gen := a.Generation()
	result := Result{Score: 2, TotalQuestions: 3, Percentage: 67}

	// 代际不匹配的结果被丢弃
	assert.False(t, a.ApplyResult(gen+1, result))
	assert.Equal(t, PhaseInProgress, a.Phase())

	assert.True(t, a.ApplyResult(gen, result))
	assert.Equal(t, PhaseSubmitted, a.Phase())
	assert.False(t, a.Focus().Active(), "focus mode must release after submission")

	got, ok := a.Result()
	require.True(t, ok)
	assert.Equal(t, 2, got.Score)

	// 已提交后再次应用无效
	assert.False(t, a.ApplyResult(gen, result))
}

func TestAbandonDiscardsState(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	a := newTestAttempt(clock)
	require.NoError(t, a.Start())
	require.NoError(t, a.SelectOption(1))

	gen := a.Generation()
	a.Abandon()

	assert.Equal(t, PhaseClosed, a.Phase())
	assert.False(t, a.Focus().Active())

	// 放弃后在途的评分响应因代际失配被忽略
	assert.False(t, a.ApplyResult(gen, Result{Score: 3, TotalQuestions: 3, Percentage: 100}))
	_, ok := a.Result()
	assert.False(t, ok)
}

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 2, 50},
		{5, 6, 83},
		{0, 0, 0},
		{1, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percentage(tc.score, tc.total), "%d/%d", tc.score, tc.total)
	}
}

package service

import (
	"certilearn_backend/internal/config"
	"certilearn_backend/internal/engine"
	"certilearn_backend/internal/util"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuizBackend 内存版装载与落库，会话状态机不感知差别。
// enterSubmit/holdSubmit 用于在提交窗口内精确停住，演练并发路径。
type stubQuizBackend struct {
	questions []engine.Question
	correct   map[uint]int

	mu       sync.Mutex
	submits  int
	failNext error

	enterSubmit chan struct{}
	holdSubmit  chan struct{}
}

func newStubBackend() *stubQuizBackend {
	return &stubQuizBackend{
		questions: []engine.Question{
			{ID: 1, Text: "一", Options: []string{"a", "b", "c"}},
			{ID: 2, Text: "二", Options: []string{"a", "b", "c"}},
		},
		correct: map[uint]int{1: 0, 2: 2},
	}
}

func (b *stubQuizBackend) LoadAttempt(_ context.Context, _ uint, _ string, _ uint) ([]engine.Question, map[uint]int, error) {
	questions := make([]engine.Question, len(b.questions))
	copy(questions, b.questions)
	correct := make(map[uint]int, len(b.correct))
	for id, idx := range b.correct {
		correct[id] = idx
	}
	return questions, correct, nil
}

func (b *stubQuizBackend) Submit(_ context.Context, _ uint, _ string, _ uint, req QuizSubmitRequest) (*SubmissionView, error) {
	if b.enterSubmit != nil {
		b.enterSubmit <- struct{}{}
	}
	if b.holdSubmit != nil {
		<-b.holdSubmit
	}

	b.mu.Lock()
	b.submits++
	failErr := b.failNext
	b.failNext = nil
	b.mu.Unlock()
	if failErr != nil {
		return nil, failErr
	}

	score := 0
	views := make([]AnswerView, 0, len(req.Answers))
	total := 0
	for _, in := range req.Answers {
		correct := in.SelectedIndex == b.correct[in.QuestionID]
		if correct {
			score++
		}
		total += in.TimeSeconds
		views = append(views, AnswerView{
			QuestionID:    in.QuestionID,
			SelectedIndex: in.SelectedIndex,
			Correct:       correct,
			TimeSeconds:   in.TimeSeconds,
		})
	}
	return &SubmissionView{
		Score:            score,
		TotalQuestions:   len(req.Answers),
		Percentage:       engine.Percentage(score, len(req.Answers)),
		TotalTimeSeconds: total,
		SubmittedAt:      time.Now(),
		Answers:          views,
	}, nil
}

func (b *stubQuizBackend) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submits
}

func newSessionService(backend QuizBackend) *QuizSessionService {
	cfg := &config.Config{}
	cfg.Quiz.SessionExpiryMinutes = 30
	cfg.Quiz.SessionSweepIntervalS = 60
	return NewQuizSessionService(backend, cfg)
}

// answerAll 把会话推进到只差最后一次 Advance 触发提交的位置
func answerAll(t *testing.T, svc *QuizSessionService, token string, userID uint) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Select(token, userID, 0)
	require.NoError(t, err)
	state, err := svc.Advance(ctx, token, userID)
	require.NoError(t, err)
	require.Equal(t, "in_progress", state.Phase)
	require.Equal(t, 1, state.Question.Index)

	_, err = svc.Select(token, userID, 2)
	require.NoError(t, err)
}

func TestQuizSessionLifecycle(t *testing.T) {
	backend := newStubBackend()
	svc := newSessionService(backend)
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", state.Phase)
	require.NotNil(t, state.Question)
	assert.Equal(t, 0, state.Question.Index)
	assert.Equal(t, 2, state.Question.Total)
	assert.Nil(t, state.SelectedIndex)
	assert.True(t, state.FocusActive)
	assert.NotEmpty(t, state.SuppressedTypes)

	token := state.Token

	// 选项覆盖：后选的生效
	_, err = svc.Select(token, 7, 1)
	require.NoError(t, err)
	state, err = svc.Select(token, 7, 0)
	require.NoError(t, err)
	require.NotNil(t, state.SelectedIndex)
	assert.Equal(t, 0, *state.SelectedIndex)

	state, err = svc.Advance(ctx, token, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Question.Index)

	_, err = svc.Select(token, 7, 2)
	require.NoError(t, err)
	state, err = svc.Advance(ctx, token, 7)
	require.NoError(t, err)

	// 最后一题作答后自动提交并回填结果
	assert.Equal(t, "submitted", state.Phase)
	assert.False(t, state.FocusActive)
	require.NotNil(t, state.Result)
	assert.Equal(t, 2, state.Result.Score)
	assert.Equal(t, 100, state.Result.Percentage)
	require.Len(t, state.Result.Results, 2)
	for _, r := range state.Result.Results {
		assert.True(t, r.Correct)
		assert.Equal(t, backend.correct[r.QuestionID], r.CorrectIndex)
	}
	assert.Equal(t, 1, backend.submitCount())

	// 提交后只读：再操作一律冲突
	_, err = svc.Select(token, 7, 1)
	assert.ErrorIs(t, err, util.ErrQuizAlreadySubmitted)
	_, err = svc.Advance(ctx, token, 7)
	assert.ErrorIs(t, err, util.ErrQuizAlreadySubmitted)

	state, err = svc.GetState(token, 7)
	require.NoError(t, err)
	assert.Equal(t, "submitted", state.Phase)
}

func TestQuizSessionAdvanceRequiresSelection(t *testing.T) {
	svc := newSessionService(newStubBackend())
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)

	_, err = svc.Advance(ctx, state.Token, 7)
	assert.ErrorIs(t, err, util.ErrNoOptionSelected)

	// 状态不变，仍停在第一题
	state, err = svc.GetState(state.Token, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Question.Index)
}

func TestQuizSessionWrongUserRejected(t *testing.T) {
	svc := newSessionService(newStubBackend())
	state, err := svc.StartSession(context.Background(), 7, "go-basics", 3)
	require.NoError(t, err)

	_, err = svc.GetState(state.Token, 8)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.Select(state.Token, 8, 0)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestQuizSessionSubmitInFlightGuard(t *testing.T) {
	backend := newStubBackend()
	backend.enterSubmit = make(chan struct{})
	backend.holdSubmit = make(chan struct{})
	svc := newSessionService(backend)
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	token := state.Token
	answerAll(t, svc, token, 7)

	done := make(chan struct{})
	var finalState *SessionState
	var finalErr error
	go func() {
		finalState, finalErr = svc.Advance(ctx, token, 7)
		close(done)
	}()

	// 停在提交窗口内：锁已释放，submitting 标记生效
	<-backend.enterSubmit

	_, err = svc.Select(token, 7, 1)
	assert.ErrorIs(t, err, util.ErrSessionSubmitInFlight)
	_, err = svc.Advance(ctx, token, 7)
	assert.ErrorIs(t, err, util.ErrSessionSubmitInFlight)
	err = svc.AbandonSession(token, 7)
	assert.ErrorIs(t, err, util.ErrSessionSubmitInFlight)

	close(backend.holdSubmit)
	<-done

	require.NoError(t, finalErr)
	assert.Equal(t, "submitted", finalState.Phase)
	require.NotNil(t, finalState.Result)
	assert.Equal(t, 1, backend.submitCount())
}

func TestQuizSessionRemovedDuringSubmit(t *testing.T) {
	backend := newStubBackend()
	backend.enterSubmit = make(chan struct{})
	backend.holdSubmit = make(chan struct{})
	svc := newSessionService(backend)
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	token := state.Token
	answerAll(t, svc, token, 7)

	done := make(chan struct{})
	var finalErr error
	go func() {
		_, finalErr = svc.Advance(ctx, token, 7)
		close(done)
	}()

	<-backend.enterSubmit

	// 提交窗口内会话被移除（等价于过期清理），响应必须被丢弃
	svc.mu.Lock()
	delete(svc.sessions, token)
	svc.mu.Unlock()

	close(backend.holdSubmit)
	<-done

	assert.ErrorIs(t, finalErr, util.ErrSessionNotFound)
	// 结果已落库，只是响应不再有接收方
	assert.Equal(t, 1, backend.submitCount())
}

func TestQuizSessionSubmitFailureKeepsAnswers(t *testing.T) {
	backend := newStubBackend()
	backend.failNext = errors.New("db down")
	svc := newSessionService(backend)
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	token := state.Token
	answerAll(t, svc, token, 7)

	_, err = svc.Advance(ctx, token, 7)
	require.EqualError(t, err, "db down")

	// 失败后会话回到可提交状态，答案未丢，重试成功
	state, err = svc.Advance(ctx, token, 7)
	require.NoError(t, err)
	assert.Equal(t, "submitted", state.Phase)
	require.NotNil(t, state.Result)
	assert.Equal(t, 2, state.Result.Score)
	assert.Equal(t, 2, backend.submitCount())
}

func TestQuizSessionAbandonDiscardsState(t *testing.T) {
	svc := newSessionService(newStubBackend())
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	_, err = svc.Select(state.Token, 7, 0)
	require.NoError(t, err)

	require.NoError(t, svc.AbandonSession(state.Token, 7))
	_, err = svc.GetState(state.Token, 7)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	// 放弃后可以重新开始，旧答案不保留
	state, err = svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	assert.Nil(t, state.SelectedIndex)
}

func TestQuizSessionRestartReplacesOld(t *testing.T) {
	svc := newSessionService(newStubBackend())
	ctx := context.Background()

	first, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	second, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = svc.GetState(first.Token, 7)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.GetState(second.Token, 7)
	assert.NoError(t, err)
}

func TestQuizSessionSweepExpired(t *testing.T) {
	svc := newSessionService(newStubBackend())
	ctx := context.Background()

	stale, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	fresh, err := svc.StartSession(ctx, 8, "go-basics", 3)
	require.NoError(t, err)

	svc.mu.Lock()
	svc.sessions[stale.Token].lastActive = time.Now().Add(-time.Hour)
	svc.mu.Unlock()

	svc.sweepExpired()

	_, err = svc.GetState(stale.Token, 7)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.GetState(fresh.Token, 8)
	assert.NoError(t, err)
}

func TestQuizSessionSweepSkipsInFlightSubmit(t *testing.T) {
	backend := newStubBackend()
	backend.enterSubmit = make(chan struct{})
	backend.holdSubmit = make(chan struct{})
	svc := newSessionService(backend)
	ctx := context.Background()

	state, err := svc.StartSession(ctx, 7, "go-basics", 3)
	require.NoError(t, err)
	token := state.Token
	answerAll(t, svc, token, 7)

	done := make(chan struct{})
	var finalState *SessionState
	var finalErr error
	go func() {
		finalState, finalErr = svc.Advance(ctx, token, 7)
		close(done)
	}()

	<-backend.enterSubmit

	// 过期也不清理在途提交的会话，响应仍能回填
	svc.mu.Lock()
	svc.sessions[token].lastActive = time.Now().Add(-time.Hour)
	svc.mu.Unlock()
	svc.sweepExpired()

	close(backend.holdSubmit)
	<-done

	require.NoError(t, finalErr)
	assert.Equal(t, "submitted", finalState.Phase)
}

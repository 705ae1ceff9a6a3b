package service

import (
	"certilearn_backend/internal/config"
	"certilearn_backend/internal/engine"
	"certilearn_backend/internal/util"
	"certilearn_backend/pkg/logger"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// quizSession 一次进行中的答题，状态只在内存里。
// 服务端持有状态机，客户端只拿到当前题和会话令牌。
type quizSession struct {
	token      string
	userID     uint
	courseSlug string
	quizID     uint
	attempt    *engine.Attempt
	correctIdx map[uint]int
	submitting bool
	lastActive time.Time
}

// QuizBackend 会话层对装载与判分落库侧的依赖
type QuizBackend interface {
	LoadAttempt(ctx context.Context, userID uint, courseSlug string, quizID uint) ([]engine.Question, map[uint]int, error)
	Submit(ctx context.Context, userID uint, courseSlug string, quizID uint, req QuizSubmitRequest) (*SubmissionView, error)
}

// QuizSessionService 答题会话注册表。map 加互斥锁串行化所有会话操作，
// 提交落库时短暂释放锁，靠 submitting 标记挡住并发提交。
type QuizSessionService struct {
	Quiz QuizBackend

	mu       sync.Mutex
	sessions map[string]*quizSession

	expiry time.Duration
	sweep  time.Duration
	stop   chan struct{}
}

func NewQuizSessionService(quiz QuizBackend, cfg *config.Config) *QuizSessionService {
	return &QuizSessionService{
		Quiz:     quiz,
		sessions: make(map[string]*quizSession),
		expiry:   time.Duration(cfg.Quiz.SessionExpiryMinutes) * time.Minute,
		sweep:    time.Duration(cfg.Quiz.SessionSweepIntervalS) * time.Second,
		stop:     make(chan struct{}),
	}
}

type SessionQuestion struct {
	QuestionID uint     `json:"questionId"`
	Index      int      `json:"index"`
	Total      int      `json:"total"`
	Text       string   `json:"questionText"`
	Options    []string `json:"options"`
}

// SessionState 会话快照。答题中只暴露当前题；提交后带判分结果。
type SessionState struct {
	Token           string           `json:"token"`
	Phase           string           `json:"phase"`
	Question        *SessionQuestion `json:"question,omitempty"`
	SelectedIndex   *int             `json:"selectedIndex,omitempty"`
	FocusActive     bool             `json:"focusActive"`
	SuppressedTypes []string         `json:"suppressedEventTypes,omitempty"`
	Result          *engine.Result   `json:"result,omitempty"`
}

func phaseLabel(p engine.Phase) string {
	switch p {
	case engine.PhaseInProgress:
		return "in_progress"
	case engine.PhaseSubmitted:
		return "submitted"
	case engine.PhaseClosed:
		return "closed"
	default:
		return "not_started"
	}
}

func (s *QuizSessionService) snapshot(sess *quizSession) *SessionState {
	state := &SessionState{
		Token:       sess.token,
		Phase:       phaseLabel(sess.attempt.Phase()),
		FocusActive: sess.attempt.Focus().Active(),
	}
	if state.FocusActive {
		state.SuppressedTypes = sess.attempt.Focus().SuppressedEvents()
	}
	if q, ok := sess.attempt.CurrentQuestion(); ok {
		state.Question = &SessionQuestion{
			QuestionID: q.ID,
			Index:      sess.attempt.CurrentIndex(),
			Total:      len(sess.correctIdx),
			Text:       q.Text,
			Options:    q.Options,
		}
		if idx, selected := sess.attempt.Selected(); selected {
			state.SelectedIndex = &idx
		}
	}
	if r, ok := sess.attempt.Result(); ok {
		state.Result = r
	}
	return state
}

// StartSession 开始答题。已提交过的测验直接冲突；同一用户可重开（旧会话被放弃）。
func (s *QuizSessionService) StartSession(ctx context.Context, userID uint, courseSlug string, quizID uint) (*SessionState, error) {
	questions, correctIdx, err := s.Quiz.LoadAttempt(ctx, userID, courseSlug, quizID)
	if err != nil {
		return nil, err
	}

	attempt := engine.NewAttempt(questions)
	if err := attempt.Start(); err != nil {
		return nil, err
	}

	sess := &quizSession{
		token:      uuid.New().String(),
		userID:     userID,
		courseSlug: courseSlug,
		quizID:     quizID,
		attempt:    attempt,
		correctIdx: correctIdx,
		lastActive: time.Now(),
	}

	s.mu.Lock()
	// 同一 (user, quiz) 只保留最新会话
	for token, old := range s.sessions {
		if old.userID == userID && old.quizID == quizID {
			old.attempt.Abandon()
			delete(s.sessions, token)
		}
	}
	s.sessions[sess.token] = sess
	s.mu.Unlock()

	return s.snapshot(sess), nil
}

func (s *QuizSessionService) find(token string, userID uint) (*quizSession, error) {
	sess, ok := s.sessions[token]
	if !ok || sess.userID != userID {
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

func (s *QuizSessionService) GetState(token string, userID uint) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.find(token, userID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// Select 选中当前题的一个选项，重复选择覆盖
func (s *QuizSessionService) Select(token string, userID uint, optionIndex int) (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.find(token, userID)
	if err != nil {
		return nil, err
	}
	if sess.submitting {
		return nil, util.ErrSessionSubmitInFlight
	}

	if err := sess.attempt.SelectOption(optionIndex); err != nil {
		if errors.Is(err, engine.ErrAlreadyFinalized) {
			return nil, util.ErrQuizAlreadySubmitted
		}
		if errors.Is(err, engine.ErrNoSelection) || errors.Is(err, engine.ErrOptionOutOfRange) {
			return nil, util.ErrNoOptionSelected
		}
		return nil, err
	}
	sess.lastActive = time.Now()
	return s.snapshot(sess), nil
}

// Advance 下一题。最后一题作答完毕即触发提交：打包载荷、落库判分、
// 回填结果。提交期间释放锁，submitting 标记挡住并发操作；
// 提交失败会话回到可提交状态，不丢答案。
func (s *QuizSessionService) Advance(ctx context.Context, token string, userID uint) (*SessionState, error) {
	s.mu.Lock()

	sess, err := s.find(token, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if sess.submitting {
		s.mu.Unlock()
		return nil, util.ErrSessionSubmitInFlight
	}

	outcome, err := sess.attempt.Advance()
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, engine.ErrAlreadyFinalized) {
			return nil, util.ErrQuizAlreadySubmitted
		}
		if errors.Is(err, engine.ErrNoSelection) {
			return nil, util.ErrNoOptionSelected
		}
		return nil, err
	}
	sess.lastActive = time.Now()

	if outcome == engine.OutcomeAdvanced {
		state := s.snapshot(sess)
		s.mu.Unlock()
		return state, nil
	}

	payload, err := sess.attempt.Payload()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	generation := sess.attempt.Generation()
	sess.submitting = true
	courseSlug, quizID := sess.courseSlug, sess.quizID
	s.mu.Unlock()

	inputs := make([]AnswerInput, 0, len(payload.Answers))
	for questionID, idx := range payload.Answers {
		inputs = append(inputs, AnswerInput{
			QuestionID:    questionID,
			SelectedIndex: idx,
			TimeSeconds:   payload.Times[questionID],
		})
	}

	view, submitErr := s.Quiz.Submit(ctx, userID, courseSlug, quizID, QuizSubmitRequest{Answers: inputs})

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err = s.find(token, userID)
	if err != nil {
		// 提交期间会话被清理（过期或放弃），结果已落库，响应丢弃
		return nil, err
	}
	sess.submitting = false

	if submitErr != nil {
		return nil, submitErr
	}

	result := engine.Result{
		Score:          view.Score,
		TotalQuestions: view.TotalQuestions,
		Percentage:     view.Percentage,
	}
	for _, a := range view.Answers {
		result.Results = append(result.Results, engine.QuestionResult{
			QuestionID:   a.QuestionID,
			Correct:      a.Correct,
			CorrectIndex: sess.correctIdx[a.QuestionID],
		})
	}

	if !sess.attempt.ApplyResult(generation, result) {
		logger.Log.Info("stale quiz submission response dropped",
			zap.String("token", token), zap.Uint64("generation", generation))
	}

	return s.snapshot(sess), nil
}

// AbandonSession 放弃答题：状态清空，不留部分提交
func (s *QuizSessionService) AbandonSession(token string, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.find(token, userID)
	if err != nil {
		return err
	}
	if sess.submitting {
		return util.ErrSessionSubmitInFlight
	}

	sess.attempt.Abandon()
	delete(s.sessions, token)
	return nil
}

// StartSweeper 启动过期会话清理协程，Close 前持续运行
func (s *QuizSessionService) StartSweeper() {
	go func() {
		ticker := time.NewTicker(s.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweepExpired()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *QuizSessionService) sweepExpired() {
	cutoff := time.Now().Add(-s.expiry)
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.submitting || !sess.lastActive.Before(cutoff) {
			continue
		}
		sess.attempt.Abandon()
		delete(s.sessions, token)
		logger.Log.Info("expired quiz session swept",
			zap.String("token", token), zap.Uint("quizId", sess.quizID))
	}
}

func (s *QuizSessionService) Close() {
	close(s.stop)
}

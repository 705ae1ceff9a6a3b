// Package engine 实现一次测验的答题状态机：顺序出题、单选覆盖、
// 按题计时、最终一次性打包提交。会话状态只存在内存里，放弃即丢弃。
package engine

import (
	"errors"
	"math"
	"time"
)

var (
	ErrNotStarted       = errors.New("attempt not started")
	ErrAlreadyStarted   = errors.New("attempt already started")
	ErrAlreadyFinalized = errors.New("attempt already finalized")
	ErrNoSelection      = errors.New("no option selected for the current question")
	ErrOptionOutOfRange = errors.New("option index out of range")
	ErrNotComplete      = errors.New("not all questions answered")
)

// Phase 显式区分未开始/答题中/已提交，避免用 submissionDetails 是否存在来隐式判断
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseSubmitted
	PhaseClosed
)

// 计时兜底：计时器异常丢失时按 60 秒记，正常路径不会走到
const fallbackSeconds = 60

type Question struct {
	ID      uint
	Text    string
	Options []string
}

// Submission 最终提交载荷，answers 和 times 各含每题恰好一条
type Submission struct {
	Answers map[uint]int
	Times   map[uint]int
}

type QuestionResult struct {
	QuestionID   uint `json:"questionId"`
	Correct      bool `json:"correct"`
	CorrectIndex int  `json:"correctIndex"`
}

type Result struct {
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Percentage     int              `json:"percentage"`
	Results        []QuestionResult `json:"results"`
}

type Outcome int

const (
	// OutcomeAdvanced 已切到下一题
	OutcomeAdvanced Outcome = iota
	// OutcomeComplete 最后一题已作答，载荷可提交
	OutcomeComplete
)

// Attempt 非并发安全，调用方（会话注册表）负责串行化
type Attempt struct {
	questions         []Question
	phase             Phase
	current           int
	answers           map[uint]int
	times             map[uint]int
	questionStartedAt time.Time
	now               func() time.Time
	generation        uint64
	focus             *FocusGuard
	result            *Result
}

type Option func(*Attempt)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(a *Attempt) { a.now = now }
}

func NewAttempt(questions []Question, opts ...Option) *Attempt {
	a := &Attempt{
		questions: questions,
		phase:     PhaseNotStarted,
		answers:   make(map[uint]int, len(questions)),
		times:     make(map[uint]int, len(questions)),
		now:       time.Now,
		focus:     &FocusGuard{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Attempt) Phase() Phase { return a.phase }

func (a *Attempt) Focus() *FocusGuard { return a.focus }

// Generation 请求代际令牌，用于丢弃迟到的提交响应
func (a *Attempt) Generation() uint64 { return a.generation }

func (a *Attempt) Start() error {
	if a.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	a.phase = PhaseInProgress
	a.current = 0
	a.questionStartedAt = a.now()
	a.generation++
	a.focus.Engage()
	return nil
}

func (a *Attempt) CurrentIndex() int { return a.current }

func (a *Attempt) CurrentQuestion() (Question, bool) {
	if a.phase != PhaseInProgress || a.current >= len(a.questions) {
		return Question{}, false
	}
	return a.questions[a.current], true
}

// Selected 当前题已选的选项
func (a *Attempt) Selected() (int, bool) {
	q, ok := a.CurrentQuestion()
	if !ok {
		return 0, false
	}
	idx, ok := a.answers[q.ID]
	return idx, ok
}

// SelectOption 纯本地状态变更，重复选择直接覆盖，不保留历史
func (a *Attempt) SelectOption(optionIndex int) error {
	if a.phase == PhaseSubmitted || a.phase == PhaseClosed {
		return ErrAlreadyFinalized
	}
	if a.phase != PhaseInProgress {
		return ErrNotStarted
	}
	q := a.questions[a.current]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return ErrOptionOutOfRange
	}
	a.answers[q.ID] = optionIndex
	return nil
}

// Advance 前置条件：当前题必须已选项，否则返回错误且状态不变。
// 记录当前题耗时并切到下一题；最后一题返回 OutcomeComplete。
func (a *Attempt) Advance() (Outcome, error) {
	if a.phase == PhaseSubmitted || a.phase == PhaseClosed {
		return 0, ErrAlreadyFinalized
	}
	if a.phase != PhaseInProgress {
		return 0, ErrNotStarted
	}
	q := a.questions[a.current]
	if _, ok := a.answers[q.ID]; !ok {
		return 0, ErrNoSelection
	}

	a.times[q.ID] = a.elapsedSeconds()

	if a.current == len(a.questions)-1 {
		return OutcomeComplete, nil
	}

	a.current++
	a.questionStartedAt = a.now()
	return OutcomeAdvanced, nil
}

// elapsedSeconds 按墙钟计，最小 1 秒；计时起点缺失时走兜底值
func (a *Attempt) elapsedSeconds() int {
	if a.questionStartedAt.IsZero() {
		return fallbackSeconds
	}
	sec := int(a.now().Sub(a.questionStartedAt).Seconds())
	if sec < 1 {
		sec = 1
	}
	return sec
}

// Payload 构造原子提交载荷；必须每题都有答案和耗时
func (a *Attempt) Payload() (Submission, error) {
	if a.phase != PhaseInProgress {
		return Submission{}, ErrNotStarted
	}
	if len(a.answers) != len(a.questions) {
		return Submission{}, ErrNotComplete
	}

	answers := make(map[uint]int, len(a.questions))
	times := make(map[uint]int, len(a.questions))
	for _, q := range a.questions {
		idx, ok := a.answers[q.ID]
		if !ok {
			return Submission{}, ErrNotComplete
		}
		answers[q.ID] = idx
		t, ok := a.times[q.ID]
		if !ok {
			t = fallbackSeconds
		}
		times[q.ID] = t
	}
	return Submission{Answers: answers, Times: times}, nil
}

// ApplyResult 只有代际匹配且仍在答题中才接收评分结果；
// 迟到或已放弃会话的响应被丢弃，返回 false。
func (a *Attempt) ApplyResult(generation uint64, result Result) bool {
	if a.phase != PhaseInProgress || generation != a.generation {
		return false
	}
	a.phase = PhaseSubmitted
	a.result = &result
	a.focus.Release()
	return true
}

func (a *Attempt) Result() (*Result, bool) {
	if a.phase != PhaseSubmitted || a.result == nil {
		return nil, false
	}
	return a.result, true
}

// Abandon 放弃答题：不保留任何部分状态，在途响应因代际失配被忽略
func (a *Attempt) Abandon() {
	a.phase = PhaseClosed
	a.answers = make(map[uint]int)
	a.times = make(map[uint]int)
	a.generation++
	a.focus.Release()
}

// Percentage 百分比得分：round(100 * score / total)
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

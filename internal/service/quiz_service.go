package service

import (
	"certilearn_backend/internal/config"
	"certilearn_backend/internal/engine"
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/repository"
	"certilearn_backend/internal/util"
	"certilearn_backend/pkg/logger"
	"certilearn_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo       *repository.QuizRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	EnrollmentSvc  *EnrollmentService
	Redis          *redis.Client
	Cfg            *config.Config
}

func NewQuizService(quizRepo *repository.QuizRepository, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository, enrollmentSvc *EnrollmentService, rdb *redis.Client, cfg *config.Config) *QuizService {
	return &QuizService{
		QuizRepo:       quizRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		EnrollmentSvc:  enrollmentSvc,
		Redis:          rdb,
		Cfg:            cfg,
	}
}

// QuestionView 学生端看到的题目。未提交前 correctIndex 永远不下发
type QuestionView struct {
	QuestionID   uint     `json:"questionId"`
	Order        int      `json:"order"`
	Text         string   `json:"questionText"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

type AnswerView struct {
	QuestionID    uint `json:"questionId"`
	SelectedIndex int  `json:"selectedIndex"`
	Correct       bool `json:"correct"`
	TimeSeconds   int  `json:"timeSeconds"`
}

type SubmissionView struct {
	Score            int          `json:"score"`
	TotalQuestions   int          `json:"totalQuestions"`
	Percentage       int          `json:"percentage"`
	TotalTimeSeconds int          `json:"totalTimeSeconds"`
	SubmittedAt      time.Time    `json:"submittedAt"`
	Answers          []AnswerView `json:"answers"`
}

// QuizView submitted=true 时进入只读回顾模式，附带判分结果与正确答案
type QuizView struct {
	QuizID         uint            `json:"quizId"`
	Title          string          `json:"title"`
	TotalQuestions int             `json:"totalQuestions"`
	Submitted      bool            `json:"submitted"`
	Questions      []QuestionView  `json:"questions"`
	Submission     *SubmissionView `json:"submission,omitempty"`
}

type AnswerInput struct {
	QuestionID    uint `json:"questionId" binding:"required"`
	SelectedIndex int  `json:"selectedIndex"`
	TimeSeconds   int  `json:"timeSeconds"`
}

type QuizSubmitRequest struct {
	Answers []AnswerInput `json:"answers" binding:"required"`
}

// 缓存结构与模型分开定义：CorrectIndex 在模型上被 json:"-" 屏蔽，
// 直接序列化模型会丢判分依据
type cachedQuestion struct {
	ID           uint            `json:"id"`
	Order        int             `json:"order"`
	Text         string          `json:"text"`
	Options      json.RawMessage `json:"options"`
	CorrectIndex int             `json:"correctIndex"`
}

type cachedQuiz struct {
	ID        uint             `json:"id"`
	CourseID  uint             `json:"courseId"`
	ModuleID  uint             `json:"moduleId"`
	Title     string           `json:"title"`
	Questions []cachedQuestion `json:"questions"`
}

func quizCacheKey(courseID, quizID uint) string {
	return fmt.Sprintf("quiz:%d:%d", courseID, quizID)
}

// loadQuiz 先查 Redis，未命中回源数据库并回填。缓存层故障只降级不报错。
func (s *QuizService) loadQuiz(ctx context.Context, courseID, quizID uint) (*model.Quiz, error) {
	key := quizCacheKey(courseID, quizID)

	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var cached cachedQuiz
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cachedToModel(&cached), nil
			}
		}
	}

	quiz, err := s.QuizRepo.FindPublished(courseID, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		cached := modelToCached(quiz)
		if raw, err := json.Marshal(cached); err == nil {
			ttl := time.Duration(s.Cfg.Quiz.CacheTTLMinutes) * time.Minute
			if err := s.Redis.Set(ctx, key, raw, ttl).Err(); err != nil {
				logger.Log.Warn("quiz cache write failed", zap.Uint("quizId", quizID), zap.Error(err))
			}
		}
	}

	return quiz, nil
}

func modelToCached(q *model.Quiz) *cachedQuiz {
	cached := &cachedQuiz{
		ID:       q.ID,
		CourseID: q.CourseID,
		ModuleID: q.ModuleID,
		Title:    q.Title,
	}
	for _, question := range q.Questions {
		cached.Questions = append(cached.Questions, cachedQuestion{
			ID:           question.ID,
			Order:        question.Order,
			Text:         question.Text,
			Options:      question.Options,
			CorrectIndex: question.CorrectIndex,
		})
	}
	return cached
}

func cachedToModel(c *cachedQuiz) *model.Quiz {
	quiz := &model.Quiz{
		CourseID:  c.CourseID,
		ModuleID:  c.ModuleID,
		Title:     c.Title,
		Published: true,
	}
	quiz.ID = c.ID
	for _, question := range c.Questions {
		qq := model.QuizQuestion{
			QuizID:       c.ID,
			Order:        question.Order,
			Text:         question.Text,
			Options:      question.Options,
			CorrectIndex: question.CorrectIndex,
		}
		qq.ID = question.ID
		quiz.Questions = append(quiz.Questions, qq)
	}
	return quiz
}

// InvalidateCache 管理端改题后调用，下一次读取回源
func (s *QuizService) InvalidateCache(ctx context.Context, courseID, quizID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, quizCacheKey(courseID, quizID)).Err(); err != nil {
		logger.Log.Warn("quiz cache invalidation failed", zap.Uint("quizId", quizID), zap.Error(err))
	}
}

// GetQuizView 学生读取测验。未提交时只给题干和选项；已提交进入只读回顾，
// 带上判分结果和每题的正确选项。
func (s *QuizService) GetQuizView(ctx context.Context, userID uint, courseSlug string, quizID uint) (*QuizView, error) {
	course, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, err
	}

	quiz, err := s.loadQuiz(ctx, course.ID, quizID)
	if err != nil {
		return nil, err
	}

	if s.moduleLocked(enrollment, quiz.ModuleID) {
		return nil, util.ErrModuleLocked
	}

	view := &QuizView{
		QuizID:         quiz.ID,
		Title:          quiz.Title,
		TotalQuestions: len(quiz.Questions),
	}

	sub, err := s.QuizRepo.FindSubmission(enrollment.ID, quiz.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	submitted := err == nil

	correctness := map[uint]AnswerView{}
	if submitted {
		answers, err := s.QuizRepo.ListSubmissionAnswers(sub.ID)
		if err != nil {
			return nil, err
		}
		views := make([]AnswerView, 0, len(answers))
		for _, a := range answers {
			av := AnswerView{
				QuestionID:    a.QuestionID,
				SelectedIndex: a.SelectedIndex,
				Correct:       a.Correct,
				TimeSeconds:   a.TimeSeconds,
			}
			correctness[a.QuestionID] = av
			views = append(views, av)
		}
		view.Submitted = true
		view.Submission = &SubmissionView{
			Score:            sub.Score,
			TotalQuestions:   sub.TotalQuestions,
			Percentage:       sub.Percentage,
			TotalTimeSeconds: sub.TotalTimeSeconds,
			SubmittedAt:      sub.SubmittedAt,
			Answers:          views,
		}
	}

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		qv := QuestionView{
			QuestionID: q.ID,
			Order:      q.Order,
			Text:       q.Text,
			Options:    q.OptionList(),
		}
		if submitted {
			idx := q.CorrectIndex
			qv.CorrectIndex = &idx
		}
		view.Questions = append(view.Questions, qv)
	}

	return view, nil
}

// LoadAttempt 为答题会话装载题目与判分索引，沿用读取路径的
// 报名、模块锁定与重复提交校验。已提交过的测验直接冲突。
func (s *QuizService) LoadAttempt(ctx context.Context, userID uint, courseSlug string, quizID uint) ([]engine.Question, map[uint]int, error) {
	course, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, nil, err
	}

	quiz, err := s.loadQuiz(ctx, course.ID, quizID)
	if err != nil {
		return nil, nil, err
	}

	if s.moduleLocked(enrollment, quiz.ModuleID) {
		return nil, nil, util.ErrModuleLocked
	}

	if _, err := s.QuizRepo.FindSubmission(enrollment.ID, quiz.ID); err == nil {
		return nil, nil, util.ErrQuizAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	questions := make([]engine.Question, 0, len(quiz.Questions))
	correctIdx := make(map[uint]int, len(quiz.Questions))
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		questions = append(questions, engine.Question{
			ID:      q.ID,
			Text:    q.Text,
			Options: q.OptionList(),
		})
		correctIdx[q.ID] = q.CorrectIndex
	}
	if len(questions) == 0 {
		return nil, nil, util.ErrQuizNotFound
	}

	return questions, correctIdx, nil
}

func (s *QuizService) findEnrollment(userID uint, courseSlug string) (*model.Course, *model.Enrollment, error) {
	course, err := s.CourseRepo.FindBySlug(courseSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrCourseNotFound
		}
		return nil, nil, err
	}
	enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(userID, course.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrEnrollmentNotFound
		}
		return nil, nil, err
	}
	return course, enrollment, nil
}

func (s *QuizService) moduleLocked(e *model.Enrollment, moduleID uint) bool {
	if moduleID == 0 {
		return false
	}
	for _, st := range e.ModuleStates() {
		if st.ModuleID == moduleID {
			return st.Locked
		}
	}
	return true
}

// ScoreAnswers 纯判分逻辑：要求每题恰好一条答案，缺题/多题/未知题都拒绝。
// 耗时字段只做转存，非法值落兜底 60 秒。
func ScoreAnswers(questions []model.QuizQuestion, inputs []AnswerInput) (int, []model.QuizSubmissionAnswer, error) {
	if len(inputs) != len(questions) {
		return 0, nil, util.ErrQuizAnswerCount
	}

	byQuestion := make(map[uint]AnswerInput, len(inputs))
	for _, in := range inputs {
		if _, dup := byQuestion[in.QuestionID]; dup {
			return 0, nil, util.ErrQuizAnswerCount
		}
		byQuestion[in.QuestionID] = in
	}

	score := 0
	answers := make([]model.QuizSubmissionAnswer, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		in, ok := byQuestion[q.ID]
		if !ok {
			return 0, nil, util.ErrQuizAnswerCount
		}
		if in.SelectedIndex < 0 || in.SelectedIndex >= len(q.OptionList()) {
			return 0, nil, engine.ErrOptionOutOfRange
		}

		seconds := in.TimeSeconds
		if seconds <= 0 {
			seconds = 60
		}

		correct := in.SelectedIndex == q.CorrectIndex
		if correct {
			score++
		}
		answers = append(answers, model.QuizSubmissionAnswer{
			QuestionID:    q.ID,
			SelectedIndex: in.SelectedIndex,
			Correct:       correct,
			TimeSeconds:   seconds,
		})
	}
	return score, answers, nil
}

// isDuplicateKey 除 gorm 翻译后的哨兵外，直接识别 MySQL 1062，
// 连接层没开错误翻译时唯一索引冲突也不能漏判
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// Submit 原子提交：判分、落库、标记模块完成一气呵成。
// (enrollment, quiz) 唯一，重复提交返回冲突，已有记录不被覆盖。
func (s *QuizService) Submit(ctx context.Context, userID uint, courseSlug string, quizID uint, req QuizSubmitRequest) (*SubmissionView, error) {
	course, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, err
	}

	quiz, err := s.loadQuiz(ctx, course.ID, quizID)
	if err != nil {
		return nil, err
	}

	if s.moduleLocked(enrollment, quiz.ModuleID) {
		return nil, util.ErrModuleLocked
	}

	if _, err := s.QuizRepo.FindSubmission(enrollment.ID, quiz.ID); err == nil {
		monitoring.QuizSubmissionCounter.WithLabelValues("conflict").Inc()
		return nil, util.ErrQuizAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	score, answers, err := ScoreAnswers(quiz.Questions, req.Answers)
	if err != nil {
		monitoring.QuizSubmissionCounter.WithLabelValues("rejected").Inc()
		return nil, err
	}

	totalTime := 0
	for _, a := range answers {
		totalTime += a.TimeSeconds
	}

	sub := &model.QuizSubmission{
		EnrollmentID:     enrollment.ID,
		QuizID:           quiz.ID,
		Score:            score,
		TotalQuestions:   len(quiz.Questions),
		Percentage:       engine.Percentage(score, len(quiz.Questions)),
		TotalTimeSeconds: totalTime,
		SubmittedAt:      time.Now(),
	}

	if err := s.QuizRepo.CreateSubmissionWithAnswers(sub, answers); err != nil {
		// 并发重复提交由唯一索引兜底
		if isDuplicateKey(err) {
			monitoring.QuizSubmissionCounter.WithLabelValues("conflict").Inc()
			return nil, util.ErrQuizAlreadySubmitted
		}
		return nil, err
	}

	monitoring.QuizSubmissionCounter.WithLabelValues("accepted").Inc()

	// 测验提交视作该模块完成，解锁下一模块
	if quiz.ModuleID != 0 {
		if _, err := s.EnrollmentSvc.CompleteModule(enrollment.ID, quiz.ModuleID); err != nil {
			logger.Log.Warn("module completion after quiz submit failed",
				zap.Uint("enrollmentId", enrollment.ID),
				zap.Uint("moduleId", quiz.ModuleID),
				zap.Error(err))
		}
	}

	_ = s.EnrollmentRepo.CreateActivity(&model.ActivityLog{
		UserID:       userID,
		EnrollmentID: enrollment.ID,
		Activity:     "quiz_submitted",
		Content:      fmt.Sprintf("测验 %d 得分 %d/%d", quiz.ID, score, len(quiz.Questions)),
	})

	views := make([]AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, AnswerView{
			QuestionID:    a.QuestionID,
			SelectedIndex: a.SelectedIndex,
			Correct:       a.Correct,
			TimeSeconds:   a.TimeSeconds,
		})
	}

	return &SubmissionView{
		Score:            sub.Score,
		TotalQuestions:   sub.TotalQuestions,
		Percentage:       sub.Percentage,
		TotalTimeSeconds: sub.TotalTimeSeconds,
		SubmittedAt:      sub.SubmittedAt,
		Answers:          views,
	}, nil
}

// ListModuleQuizzes 模块下已发布的测验列表（不含题目）
func (s *QuizService) ListModuleQuizzes(userID uint, courseSlug string, moduleID uint) ([]model.Quiz, error) {
	_, enrollment, err := s.findEnrollment(userID, courseSlug)
	if err != nil {
		return nil, err
	}
	if s.moduleLocked(enrollment, moduleID) {
		return nil, util.ErrModuleLocked
	}
	return s.QuizRepo.ListByModule(moduleID)
}

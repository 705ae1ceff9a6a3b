package service

import (
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/repository"
	"certilearn_backend/internal/util"
	"certilearn_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
	QuizRepo   *repository.QuizRepository
	QuizSvc    *QuizService
}

func NewCourseService(courseRepo *repository.CourseRepository, quizRepo *repository.QuizRepository, quizSvc *QuizService) *CourseService {
	return &CourseService{CourseRepo: courseRepo, QuizRepo: quizRepo, QuizSvc: quizSvc}
}

type CourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Published   *bool  `json:"published"`
}

type ModuleRequest struct {
	Title   string `json:"title" binding:"required"`
	Summary string `json:"summary"`
	Order   int    `json:"order"`
}

type QuizRequest struct {
	ModuleID  uint   `json:"moduleId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Published *bool  `json:"published"`
}

type QuestionRequest struct {
	Order        int      `json:"order"`
	Text         string   `json:"questionText" binding:"required"`
	Options      []string `json:"options" binding:"required,min=2"`
	CorrectIndex int      `json:"correctIndex"`
}

// ListCatalog 公开课程目录，只含已发布课程
func (s *CourseService) ListCatalog(page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.ListPublished(page, limit)
}

func (s *CourseService) GetBySlug(slug string) (*model.Course, error) {
	course, err := s.CourseRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// ListAll 管理端课程列表，含未发布
func (s *CourseService) ListAll(page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.ListAll(page, limit)
}

func (s *CourseService) Create(req CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:       req.Title,
		Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
		Description: req.Description,
		Price:       req.Price,
	}
	if req.Published != nil {
		course.Published = *req.Published
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	logger.Log.Info("course created", zap.Uint("courseId", course.ID), zap.String("slug", course.Slug))
	return course, nil
}

func (s *CourseService) Update(id uint, req CourseRequest) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	course.Title = req.Title
	course.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	course.Description = req.Description
	course.Price = req.Price
	if req.Published != nil {
		course.Published = *req.Published
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) AddModule(courseID uint, req ModuleRequest) (*model.CourseModule, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	module := &model.CourseModule{
		CourseID: courseID,
		Title:    req.Title,
		Summary:  req.Summary,
		Order:    req.Order,
	}
	if err := s.CourseRepo.AddModule(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CourseService) UpdateModule(moduleID uint, req ModuleRequest) (*model.CourseModule, error) {
	module, err := s.CourseRepo.FindModule(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	module.Title = req.Title
	module.Summary = req.Summary
	module.Order = req.Order

	if err := s.CourseRepo.UpdateModule(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CourseService) CreateQuiz(ctx context.Context, courseID uint, req QuizRequest) (*model.Quiz, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if _, err := s.CourseRepo.FindModule(req.ModuleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	quiz := &model.Quiz{
		CourseID: courseID,
		ModuleID: req.ModuleID,
		Title:    req.Title,
	}
	if req.Published != nil {
		quiz.Published = *req.Published
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *CourseService) UpdateQuiz(ctx context.Context, quizID uint, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	quiz.ModuleID = req.ModuleID
	quiz.Title = req.Title
	if req.Published != nil {
		quiz.Published = *req.Published
	}

	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}
	s.QuizSvc.InvalidateCache(ctx, quiz.CourseID, quiz.ID)
	return quiz, nil
}

func (s *CourseService) GetQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

func (s *CourseService) AddQuestion(ctx context.Context, quizID uint, req QuestionRequest) (*model.QuizQuestion, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	if req.CorrectIndex < 0 || req.CorrectIndex >= len(req.Options) {
		return nil, util.ErrQuizAnswerCount
	}

	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, err
	}

	question := &model.QuizQuestion{
		QuizID:       quiz.ID,
		Order:        req.Order,
		Text:         req.Text,
		Options:      options,
		CorrectIndex: req.CorrectIndex,
	}
	if err := s.QuizRepo.CreateQuestion(question); err != nil {
		return nil, err
	}
	s.QuizSvc.InvalidateCache(ctx, quiz.CourseID, quiz.ID)
	return question, nil
}

func (s *CourseService) UpdateQuestion(ctx context.Context, quizID, questionID uint, req QuestionRequest) (*model.QuizQuestion, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	var question *model.QuizQuestion
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			question = &quiz.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, util.ErrQuizNotFound
	}

	if req.CorrectIndex < 0 || req.CorrectIndex >= len(req.Options) {
		return nil, util.ErrQuizAnswerCount
	}

	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, err
	}

	question.Order = req.Order
	question.Text = req.Text
	question.Options = options
	question.CorrectIndex = req.CorrectIndex

	if err := s.QuizRepo.UpdateQuestion(question); err != nil {
		return nil, err
	}
	s.QuizSvc.InvalidateCache(ctx, quiz.CourseID, quiz.ID)
	return question, nil
}

func (s *CourseService) DeleteQuestion(ctx context.Context, quizID, questionID uint) error {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuizNotFound
		}
		return err
	}
	if err := s.QuizRepo.DeleteQuestion(questionID); err != nil {
		return err
	}
	s.QuizSvc.InvalidateCache(ctx, quiz.CourseID, quiz.ID)
	return nil
}

package repository

import (
	"certilearn_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.order ASC")
	}).First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindPublished(courseID, quizID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.order ASC")
	}).Where("id = ? AND course_id = ? AND published = ?", quizID, courseID, true).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) ListByModule(moduleID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("module_id = ? AND published = ?", moduleID, true).
		Order("created_at ASC").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) FindSubmission(enrollmentID, quizID uint) (*model.QuizSubmission, error) {
	var sub model.QuizSubmission
	err := r.DB.Where("enrollment_id = ? AND quiz_id = ?", enrollmentID, quizID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubmissionWithAnswers 提交记录与每题答案同事务写入，保证原子性
func (r *QuizRepository) CreateSubmissionWithAnswers(sub *model.QuizSubmission, answers []model.QuizSubmissionAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].SubmissionID = sub.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) ListSubmissionAnswers(submissionID uint) ([]model.QuizSubmissionAnswer, error) {
	var answers []model.QuizSubmissionAnswer
	err := r.DB.Where("submission_id = ?", submissionID).Find(&answers).Error
	return answers, err
}

func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) UpdateQuestion(q *model.QuizQuestion) error {
	return r.DB.Save(q).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.QuizQuestion{}, id).Error
}

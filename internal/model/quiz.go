package model

import (
	"encoding/json"
	"time"
)

// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID  uint           `gorm:"index;type:bigint unsigned" json:"courseId"`
	ModuleID  uint           `gorm:"index;type:bigint unsigned" json:"moduleId"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Published bool           `gorm:"default:false" json:"published"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion 选择题，Options 为 JSON 数组，CorrectIndex 指向正确选项
type QuizQuestion struct {
	BaseModel
	QuizID       uint            `gorm:"index;type:bigint unsigned" json:"quizId"`
	Order        int             `gorm:"default:0" json:"order"`
	Text         string          `gorm:"type:text;not null" json:"questionText"`
	Options      json.RawMessage `gorm:"type:json" json:"options"`
	CorrectIndex int             `gorm:"not null" json:"-"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// OptionList 解析选项数组，解析失败返回空
func (q *QuizQuestion) OptionList() []string {
	var opts []string
	if len(q.Options) > 0 {
		_ = json.Unmarshal(q.Options, &opts)
	}
	return opts
}

// QuizSubmission 一次测验的最终提交，(enrollment, quiz) 唯一，提交后不可变
type QuizSubmission struct {
	BaseModel
	EnrollmentID     uint      `gorm:"index;type:bigint unsigned;uniqueIndex:uniq_enrollment_quiz" json:"enrollmentId"`
	QuizID           uint      `gorm:"index;type:bigint unsigned;uniqueIndex:uniq_enrollment_quiz" json:"quizId"`
	Score            int       `gorm:"not null" json:"score"`
	TotalQuestions   int       `gorm:"not null" json:"totalQuestions"`
	Percentage       int       `gorm:"not null" json:"percentage"`
	TotalTimeSeconds int       `gorm:"default:0" json:"totalTimeSeconds"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}

// QuizSubmissionAnswer 每题的答案与耗时（耗时仅作遥测转存，不参与判分）
type QuizSubmissionAnswer struct {
	BaseModel
	SubmissionID  uint `gorm:"index;type:bigint unsigned" json:"submissionId"`
	QuestionID    uint `gorm:"index;type:bigint unsigned" json:"questionId"`
	SelectedIndex int  `gorm:"not null" json:"selectedIndex"`
	Correct       bool `gorm:"default:false" json:"correct"`
	TimeSeconds   int  `gorm:"default:0" json:"timeSeconds"`
}

func (QuizSubmissionAnswer) TableName() string {
	return "quiz_submission_answers"
}

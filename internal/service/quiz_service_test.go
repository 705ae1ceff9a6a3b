package service

import (
	"certilearn_backend/internal/engine"
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/util"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testQuestions(t *testing.T) []model.QuizQuestion {
	t.Helper()
	opts, err := json.Marshal([]string{"a", "b", "c"})
	require.NoError(t, err)

	questions := make([]model.QuizQuestion, 3)
	for i := range questions {
		questions[i] = model.QuizQuestion{
			Order:        i + 1,
			Options:      opts,
			CorrectIndex: i % 3,
		}
		questions[i].ID = uint(i + 1)
	}
	return questions
}

func TestScoreAnswersFullMarks(t *testing.T) {
	questions := testQuestions(t)
	inputs := []AnswerInput{
		{QuestionID: 1, SelectedIndex: 0, TimeSeconds: 4},
		{QuestionID: 2, SelectedIndex: 1, TimeSeconds: 9},
		{QuestionID: 3, SelectedIndex: 2, TimeSeconds: 2},
	}

	score, answers, err := ScoreAnswers(questions, inputs)
	require.NoError(t, err)
	assert.Equal(t, 3, score)
	require.Len(t, answers, 3)
	for _, a := range answers {
		assert.True(t, a.Correct)
	}
	assert.Equal(t, 100, engine.Percentage(score, len(questions)))
}

func TestScoreAnswersPartial(t *testing.T) {
	questions := testQuestions(t)
	inputs := []AnswerInput{
		{QuestionID: 1, SelectedIndex: 0, TimeSeconds: 4},
		{QuestionID: 2, SelectedIndex: 0, TimeSeconds: 9},
		{QuestionID: 3, SelectedIndex: 0, TimeSeconds: 2},
	}

	score, answers, err := ScoreAnswers(questions, inputs)
	require.NoError(t, err)
	assert.Equal(t, 1, score)
	assert.True(t, answers[0].Correct)
	assert.False(t, answers[1].Correct)
	assert.False(t, answers[2].Correct)
	assert.Equal(t, 33, engine.Percentage(score, len(questions)))
}

func TestScoreAnswersCountMismatch(t *testing.T) {
	questions := testQuestions(t)

	// 缺一题
	_, _, err := ScoreAnswers(questions, []AnswerInput{
		{QuestionID: 1, SelectedIndex: 0},
		{QuestionID: 2, SelectedIndex: 1},
	})
	assert.ErrorIs(t, err, util.ErrQuizAnswerCount)

	// 同一题重复两条
	_, _, err = ScoreAnswers(questions, []AnswerInput{
		{QuestionID: 1, SelectedIndex: 0},
		{QuestionID: 1, SelectedIndex: 1},
		{QuestionID: 3, SelectedIndex: 2},
	})
	assert.ErrorIs(t, err, util.ErrQuizAnswerCount)

	// 未知题目
	_, _, err = ScoreAnswers(questions, []AnswerInput{
		{QuestionID: 1, SelectedIndex: 0},
		{QuestionID: 2, SelectedIndex: 1},
		{QuestionID: 99, SelectedIndex: 2},
	})
	assert.ErrorIs(t, err, util.ErrQuizAnswerCount)
}

func TestScoreAnswersOptionOutOfRange(t *testing.T) {
	questions := testQuestions(t)
	_, _, err := ScoreAnswers(questions, []AnswerInput{
		{QuestionID: 1, SelectedIndex: 5},
		{QuestionID: 2, SelectedIndex: 1},
		{QuestionID: 3, SelectedIndex: 2},
	})
	assert.ErrorIs(t, err, engine.ErrOptionOutOfRange)
}

func TestScoreAnswersTimeFallback(t *testing.T) {
	questions := testQuestions(t)
	inputs := []AnswerInput{
		{QuestionID: 1, SelectedIndex: 0, TimeSeconds: 0},
		{QuestionID: 2, SelectedIndex: 1, TimeSeconds: -3},
		{QuestionID: 3, SelectedIndex: 2, TimeSeconds: 7},
	}

	_, answers, err := ScoreAnswers(questions, inputs)
	require.NoError(t, err)
	assert.Equal(t, 60, answers[0].TimeSeconds, "missing timing falls back to 60s")
	assert.Equal(t, 60, answers[1].TimeSeconds)
	assert.Equal(t, 7, answers[2].TimeSeconds)
}

func TestIsDuplicateKey(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm 翻译后的哨兵", gorm.ErrDuplicatedKey, true},
		{"包装过的哨兵", fmt.Errorf("create submission: %w", gorm.ErrDuplicatedKey), true},
		{"驱动层原始 1062", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"包装过的 1062", fmt.Errorf("create submission: %w", &mysqldriver.MySQLError{Number: 1062}), true},
		{"外键约束 1452 不算重复", &mysqldriver.MySQLError{Number: 1452}, false},
		{"记录不存在", gorm.ErrRecordNotFound, false},
		{"普通错误", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isDuplicateKey(tc.err))
		})
	}
}

func TestQuizCacheRoundTrip(t *testing.T) {
	quiz := &model.Quiz{Title: "模块一测验", CourseID: 7, ModuleID: 3, Published: true}
	quiz.ID = 42
	quiz.Questions = testQuestions(t)

	raw, err := json.Marshal(modelToCached(quiz))
	require.NoError(t, err)

	var cached cachedQuiz
	require.NoError(t, json.Unmarshal(raw, &cached))
	restored := cachedToModel(&cached)

	assert.Equal(t, quiz.ID, restored.ID)
	assert.Equal(t, quiz.ModuleID, restored.ModuleID)
	require.Len(t, restored.Questions, 3)
	// 判分依据必须在缓存里存活（模型上的 json:"-" 不能影响缓存结构）
	for i := range quiz.Questions {
		assert.Equal(t, quiz.Questions[i].CorrectIndex, restored.Questions[i].CorrectIndex)
	}
}

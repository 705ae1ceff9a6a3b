package service

import (
	"certilearn_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCourse(id uint, title string, price int) model.Course {
	c := model.Course{Title: title, Price: price, Published: true}
	c.ID = id
	return c
}

func testEnrollment(id, courseID uint) model.Enrollment {
	e := model.Enrollment{CourseID: courseID, PaymentStatus: model.PaymentUnpaid}
	e.ID = id
	return e
}

func TestAssembleDetails(t *testing.T) {
	svc := &EnrollmentService{}

	enrollments := []model.Enrollment{
		testEnrollment(1, 10),
		testEnrollment(2, 20),
	}
	enrollments[1].PaymentStatus = model.PaymentFullyPaid
	courses := []model.Course{
		testCourse(10, "Go 入门", 5000),
		testCourse(20, "Go 进阶", 8000),
	}

	details := svc.assembleDetails(enrollments, courses)
	require.Len(t, details, 2)

	assert.Equal(t, uint(1), details[0].EnrollmentID)
	assert.Equal(t, "Go 入门", details[0].CourseTitle)
	assert.Equal(t, model.StageInProgress, details[0].Stage)

	assert.Equal(t, uint(2), details[1].EnrollmentID)
	assert.Equal(t, "Go 进阶", details[1].CourseTitle)
	assert.Equal(t, model.PaymentFullyPaid, details[1].PaymentStatus)
}

func TestAssembleDetailsSkipsMissingCourse(t *testing.T) {
	svc := &EnrollmentService{}

	enrollments := []model.Enrollment{
		testEnrollment(1, 10),
		testEnrollment(2, 99), // 课程已不存在
	}
	courses := []model.Course{testCourse(10, "Go 入门", 5000)}

	details := svc.assembleDetails(enrollments, courses)
	require.Len(t, details, 1)
	assert.Equal(t, uint(1), details[0].EnrollmentID)
}

func TestAssembleDetailsEmpty(t *testing.T) {
	svc := &EnrollmentService{}
	assert.Empty(t, svc.assembleDetails(nil, nil))
}

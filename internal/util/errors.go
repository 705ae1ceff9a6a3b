package util

import "errors"

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUserNotFound           = errors.New("用户不存在")
	ErrEmailRegistered        = errors.New("该邮箱已被注册")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrCourseNotFound         = errors.New("course not found")
	ErrEnrollmentNotFound     = errors.New("enrollment not found")
	ErrAlreadyEnrolled        = errors.New("already enrolled in this course")
	ErrModuleLocked           = errors.New("module is locked, complete the previous module first")
	ErrModuleNotFound         = errors.New("module not found in this enrollment")
	ErrCapstoneLocked         = errors.New("capstone is locked until all modules are completed")
	ErrCapstoneAlreadySent    = errors.New("capstone already submitted")
	ErrQuizNotFound           = errors.New("quiz not found or not published")
	ErrQuizAlreadySubmitted   = errors.New("quiz already submitted")
	ErrQuizAnswerCount        = errors.New("answers must cover every question exactly once")
	ErrPaymentStateConflict   = errors.New("payment proof not allowed in the current payment state")
	ErrProofNotPending        = errors.New("payment proof is not pending review")
	ErrSessionNotFound        = errors.New("quiz session not found or expired")
	ErrSessionSubmitInFlight  = errors.New("a submission for this quiz is already in flight")
	ErrNoOptionSelected       = errors.New("select an option before advancing")
	ErrCertificateNotEligible = errors.New("certificate not available yet")
)

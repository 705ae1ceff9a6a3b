package controller

import (
	"certilearn_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondServiceError 服务层哨兵错误到 HTTP 状态码的统一映射。
// 客户端一律优先展示这里下发的 message。
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound):
		util.Error(ctx, http.StatusUnauthorized, "邮箱或密码错误")
	case errors.Is(err, util.ErrEmailRegistered):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrEnrollmentNotFound),
		errors.Is(err, util.ErrModuleNotFound),
		errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrAlreadyEnrolled),
		errors.Is(err, util.ErrCapstoneAlreadySent),
		errors.Is(err, util.ErrQuizAlreadySubmitted),
		errors.Is(err, util.ErrPaymentStateConflict),
		errors.Is(err, util.ErrProofNotPending),
		errors.Is(err, util.ErrSessionSubmitInFlight):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrModuleLocked),
		errors.Is(err, util.ErrCapstoneLocked):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrQuizAnswerCount),
		errors.Is(err, util.ErrNoOptionSelected),
		errors.Is(err, util.ErrCertificateNotEligible):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

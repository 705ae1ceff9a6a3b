package controller

import (
	"certilearn_backend/internal/service"
	"certilearn_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Description 为当前用户创建课程报名，模块按课程大纲初始化
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "已报名"
// @Router /api/courses/{slug}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.Enroll(claims.UserID, ctx.Param("slug"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Created(ctx, enrollment)
}

// GetDetail godoc
// @Summary 我的报名详情
// @Description 报名快照：阶段、模块解锁状态、毕业设计、支付状态、证书资格
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Success 200 {object} util.Response{data=service.EnrollmentDetail} "成功"
// @Failure 404 {object} util.Response "未报名"
// @Router /api/courses/{slug}/enrollment [get]
func (c *EnrollmentController) GetDetail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	detail, err := c.EnrollmentService.GetDetail(claims.UserID, ctx.Param("slug"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// ListMine godoc
// @Summary 我的全部报名
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.EnrollmentDetail} "成功"
// @Router /api/enrollments [get]
func (c *EnrollmentController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	details, err := c.EnrollmentService.ListMine(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, details)
}

// MarkModuleAccessed godoc
// @Summary 记录模块访问
// @Description 首次访问落库，重复访问幂等；锁定中的模块拒绝访问
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   moduleId path int true "模块 ID"
// @Success 200 {object} util.Response{data=model.EnrollmentModule} "成功"
// @Failure 403 {object} util.Response "模块锁定中"
// @Router /api/courses/{slug}/modules/{moduleId}/access [post]
func (c *EnrollmentController) MarkModuleAccessed(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	moduleID, err := strconv.ParseUint(ctx.Param("moduleId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid module id")
		return
	}

	em, err := c.EnrollmentService.MarkModuleAccessed(claims.UserID, ctx.Param("slug"), uint(moduleID))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, em)
}

// SubmitCapstone godoc
// @Summary 提交毕业设计
// @Description 全部模块完成后解锁；重复提交返回冲突
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   body body service.CapstoneSubmitRequest true "提交内容"
// @Success 200 {object} util.Response{data=service.EnrollmentDetail} "成功"
// @Failure 403 {object} util.Response "毕业设计未解锁"
// @Failure 409 {object} util.Response "已提交"
// @Router /api/courses/{slug}/capstone [post]
func (c *EnrollmentController) SubmitCapstone(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CapstoneSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	detail, err := c.EnrollmentService.SubmitCapstone(claims.UserID, ctx.Param("slug"), req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

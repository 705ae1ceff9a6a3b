package controller

import (
	"certilearn_backend/internal/service"
	"certilearn_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AdminController 管理端：课程/模块/测验维护、支付核验、毕业设计评审、用户管理
type AdminController struct {
	CourseService     *service.CourseService
	PaymentService    *service.PaymentService
	EnrollmentService *service.EnrollmentService
	UserService       *service.UserService
}

func NewAdminController(courseService *service.CourseService, paymentService *service.PaymentService, enrollmentService *service.EnrollmentService, userService *service.UserService) *AdminController {
	return &AdminController{
		CourseService:     courseService,
		PaymentService:    paymentService,
		EnrollmentService: enrollmentService,
		UserService:       userService,
	}
}

func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// ListCourses godoc
// @Summary 课程列表（含未发布）
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/courses [get]
func (c *AdminController) ListCourses(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	courses, total, err := c.CourseService.ListAll(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Router /api/admin/courses [post]
func (c *AdminController) CreateCourse(ctx *gin.Context) {
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Router /api/admin/courses/{courseId} [put]
func (c *AdminController) UpdateCourse(ctx *gin.Context) {
	courseID, ok := idParam(ctx, "courseId")
	if !ok {
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Update(courseID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// AddModule godoc
// @Summary 添加课程模块
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Param   body body service.ModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule} "创建成功"
// @Router /api/admin/courses/{courseId}/modules [post]
func (c *AdminController) AddModule(ctx *gin.Context) {
	courseID, ok := idParam(ctx, "courseId")
	if !ok {
		return
	}

	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.CourseService.AddModule(courseID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// UpdateModule godoc
// @Summary 更新课程模块
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   moduleId path int true "模块 ID"
// @Param   body body service.ModuleRequest true "模块信息"
// @Success 200 {object} util.Response{data=model.CourseModule} "成功"
// @Router /api/admin/modules/{moduleId} [put]
func (c *AdminController) UpdateModule(ctx *gin.Context) {
	moduleID, ok := idParam(ctx, "moduleId")
	if !ok {
		return
	}

	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.CourseService.UpdateModule(moduleID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Param   body body service.QuizRequest true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz} "创建成功"
// @Router /api/admin/courses/{courseId}/quizzes [post]
func (c *AdminController) CreateQuiz(ctx *gin.Context) {
	courseID, ok := idParam(ctx, "courseId")
	if !ok {
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.CourseService.CreateQuiz(ctx.Request.Context(), courseID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary 更新测验
// @Description 改动后测验缓存立即失效
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   quizId path int true "测验 ID"
// @Param   body body service.QuizRequest true "测验信息"
// @Success 200 {object} util.Response{data=model.Quiz} "成功"
// @Router /api/admin/quizzes/{quizId} [put]
func (c *AdminController) UpdateQuiz(ctx *gin.Context) {
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.CourseService.UpdateQuiz(ctx.Request.Context(), quizID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// GetQuiz godoc
// @Summary 测验详情（含正确答案）
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Param   quizId path int true "测验 ID"
// @Success 200 {object} util.Response{data=model.Quiz} "成功"
// @Router /api/admin/quizzes/{quizId} [get]
func (c *AdminController) GetQuiz(ctx *gin.Context) {
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}

	quiz, err := c.CourseService.GetQuiz(quizID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// AddQuestion godoc
// @Summary 添加题目
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   quizId path int true "测验 ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.QuizQuestion} "创建成功"
// @Router /api/admin/quizzes/{quizId}/questions [post]
func (c *AdminController) AddQuestion(ctx *gin.Context) {
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.CourseService.AddQuestion(ctx.Request.Context(), quizID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   quizId path int true "测验 ID"
// @Param   questionId path int true "题目 ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.QuizQuestion} "成功"
// @Router /api/admin/quizzes/{quizId}/questions/{questionId} [put]
func (c *AdminController) UpdateQuestion(ctx *gin.Context) {
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}
	questionID, ok := idParam(ctx, "questionId")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.CourseService.UpdateQuestion(ctx.Request.Context(), quizID, questionID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Param   quizId path int true "测验 ID"
// @Param   questionId path int true "题目 ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/quizzes/{quizId}/questions/{questionId} [delete]
func (c *AdminController) DeleteQuestion(ctx *gin.Context) {
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}
	questionID, ok := idParam(ctx, "questionId")
	if !ok {
		return
	}

	if err := c.CourseService.DeleteQuestion(ctx.Request.Context(), quizID, questionID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListPendingProofs godoc
// @Summary 待核验支付凭证列表
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/payments/pending [get]
func (c *AdminController) ListPendingProofs(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	proofs, total, err := c.PaymentService.ListPending(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: proofs, Total: total, Page: page, Limit: limit})
}

// VerifyProof godoc
// @Summary 核验通过支付凭证
// @Description 部分支付进入 PARTIAL_PAID，全额支付进入 FULLY_PAID；满足条件自动签发证书
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Param   proofId path string true "凭证 ID"
// @Success 200 {object} util.Response{data=model.PaymentProof} "成功"
// @Failure 409 {object} util.Response "凭证不在待核验状态"
// @Router /api/admin/payments/{proofId}/verify [post]
func (c *AdminController) VerifyProof(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	proof, err := c.PaymentService.VerifyProof(claims.UserID, ctx.Param("proofId"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, proof)
}

type rejectProofRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectProof godoc
// @Summary 驳回支付凭证
// @Description 报名支付状态回退到提交前的状态
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   proofId path string true "凭证 ID"
// @Param   body body rejectProofRequest true "驳回原因"
// @Success 200 {object} util.Response{data=model.PaymentProof} "成功"
// @Router /api/admin/payments/{proofId}/reject [post]
func (c *AdminController) RejectProof(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req rejectProofRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	proof, err := c.PaymentService.RejectProof(claims.UserID, ctx.Param("proofId"), req.Reason)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, proof)
}

type gradeCapstoneRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// GradeCapstone godoc
// @Summary 评审毕业设计
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   enrollmentId path int true "报名 ID"
// @Param   body body gradeCapstoneRequest true "评审结果"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Router /api/admin/enrollments/{enrollmentId}/capstone [post]
func (c *AdminController) GradeCapstone(ctx *gin.Context) {
	enrollmentID, ok := idParam(ctx, "enrollmentId")
	if !ok {
		return
	}

	var req gradeCapstoneRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.EnrollmentService.GradeCapstone(enrollmentID, *req.Completed)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// ListEnrollments godoc
// @Summary 课程报名列表
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "课程 ID"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/courses/{courseId}/enrollments [get]
func (c *AdminController) ListEnrollments(ctx *gin.Context) {
	courseID, ok := idParam(ctx, "courseId")
	if !ok {
		return
	}

	page, limit := pageParams(ctx)
	enrollments, total, err := c.EnrollmentService.ListByCourse(courseID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: enrollments, Total: total, Page: page, Limit: limit})
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 管理端
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	users, total, err := c.UserService.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

type setDisabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetUserDisabled godoc
// @Summary 封禁/解封用户
// @Tags 管理端
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   userId path int true "用户 ID"
// @Param   body body setDisabledRequest true "封禁标志"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Router /api/admin/users/{userId}/disabled [put]
func (c *AdminController) SetUserDisabled(ctx *gin.Context) {
	userID, ok := idParam(ctx, "userId")
	if !ok {
		return
	}

	var req setDisabledRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.SetDisabled(userID, *req.Disabled)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

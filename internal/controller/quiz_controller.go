package controller

import (
	"certilearn_backend/internal/service"
	"certilearn_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService    *service.QuizService
	SessionService *service.QuizSessionService
}

func NewQuizController(quizService *service.QuizService, sessionService *service.QuizSessionService) *QuizController {
	return &QuizController{QuizService: quizService, SessionService: sessionService}
}

func quizIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("quizId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return 0, false
	}
	return uint(id), true
}

// GetQuiz godoc
// @Summary 读取测验
// @Description 未提交时只下发题干与选项；已提交进入只读回顾，附判分结果与正确答案
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   quizId path int true "测验 ID"
// @Success 200 {object} util.Response{data=service.QuizView} "成功"
// @Failure 403 {object} util.Response "模块锁定中"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/courses/{slug}/quizzes/{quizId} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, ok := quizIDParam(ctx)
	if !ok {
		return
	}

	view, err := c.QuizService.GetQuizView(ctx.Request.Context(), claims.UserID, ctx.Param("slug"), quizID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// ListModuleQuizzes godoc
// @Summary 模块测验列表
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   moduleId path int true "模块 ID"
// @Success 200 {object} util.Response{data=[]model.Quiz} "成功"
// @Router /api/courses/{slug}/modules/{moduleId}/quizzes [get]
func (c *QuizController) ListModuleQuizzes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	moduleID, err := strconv.ParseUint(ctx.Param("moduleId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid module id")
		return
	}

	quizzes, err := c.QuizService.ListModuleQuizzes(claims.UserID, ctx.Param("slug"), uint(moduleID))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, quizzes)
}

// SubmitQuiz godoc
// @Summary 直接提交测验
// @Description 一次性原子提交全部答案；每题恰好一条，重复提交返回冲突
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   quizId path int true "测验 ID"
// @Param   body body service.QuizSubmitRequest true "答案载荷"
// @Success 200 {object} util.Response{data=service.SubmissionView} "判分结果"
// @Failure 400 {object} util.Response "答案数量不匹配"
// @Failure 409 {object} util.Response "已提交过"
// @Router /api/courses/{slug}/quizzes/{quizId}/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, ok := quizIDParam(ctx)
	if !ok {
		return
	}

	var req service.QuizSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuizService.Submit(ctx.Request.Context(), claims.UserID, ctx.Param("slug"), quizID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// StartSession godoc
// @Summary 开始答题会话
// @Description 服务端持有答题状态机，逐题下发；开启专注模式
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   quizId path int true "测验 ID"
// @Success 201 {object} util.Response{data=service.SessionState} "会话已创建"
// @Failure 409 {object} util.Response "已提交过"
// @Router /api/courses/{slug}/quizzes/{quizId}/session [post]
func (c *QuizController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, ok := quizIDParam(ctx)
	if !ok {
		return
	}

	state, err := c.SessionService.StartSession(ctx.Request.Context(), claims.UserID, ctx.Param("slug"), quizID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Created(ctx, state)
}

// GetSession godoc
// @Summary 会话快照
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response{data=service.SessionState} "成功"
// @Failure 404 {object} util.Response "会话不存在或已过期"
// @Router /api/quiz-sessions/{token} [get]
func (c *QuizController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, err := c.SessionService.GetState(ctx.Param("token"), claims.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, state)
}

type selectOptionRequest struct {
	OptionIndex *int `json:"optionIndex" binding:"required"`
}

// SelectOption godoc
// @Summary 选择当前题选项
// @Description 重复选择直接覆盖，不保留历史
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   token path string true "会话令牌"
// @Param   body body selectOptionRequest true "选项下标"
// @Success 200 {object} util.Response{data=service.SessionState} "成功"
// @Router /api/quiz-sessions/{token}/select [post]
func (c *QuizController) SelectOption(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req selectOptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := c.SessionService.Select(ctx.Param("token"), claims.UserID, *req.OptionIndex)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, state)
}

// AdvanceSession godoc
// @Summary 下一题
// @Description 当前题未选项时拒绝；最后一题触发原子提交并返回判分结果
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response{data=service.SessionState} "成功"
// @Failure 400 {object} util.Response "当前题未选项"
// @Router /api/quiz-sessions/{token}/advance [post]
func (c *QuizController) AdvanceSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	state, err := c.SessionService.Advance(ctx.Request.Context(), ctx.Param("token"), claims.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, state)
}

// AbandonSession godoc
// @Summary 放弃答题
// @Description 清空会话状态，不保留部分提交
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response "成功"
// @Router /api/quiz-sessions/{token} [delete]
func (c *QuizController) AbandonSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.SessionService.AbandonSession(ctx.Param("token"), claims.UserID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

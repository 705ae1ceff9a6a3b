package controller

import (
	"certilearn_backend/internal/model"
	"certilearn_backend/internal/service"
	"certilearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	PaymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{PaymentService: paymentService}
}

func (c *PaymentController) submitProof(ctx *gin.Context, kind model.PaymentKind) {
	claims := util.GetUserFromContext(ctx)

	var req service.ProofRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	// 截图可选，缺失不拦截
	screenshot, _ := ctx.FormFile("screenshot")

	proof, err := c.PaymentService.SubmitProof(ctx.Request.Context(), claims.UserID, ctx.Param("slug"), kind, req, screenshot)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Created(ctx, proof)
}

// SubmitPartialProof godoc
// @Summary 提交部分支付凭证
// @Description 五个转账字段必填，截图可选；仅未支付状态可发起，成功后进入待核验
// @Tags 支付
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   accountHolderName formData string true "账户持有人"
// @Param   bankName formData string true "银行名称"
// @Param   ifscCode formData string true "IFSC 代码"
// @Param   accountNumber formData string true "账号"
// @Param   transactionId formData string true "交易号"
// @Param   amount formData int false "金额"
// @Param   screenshot formData file false "转账截图"
// @Success 201 {object} util.Response{data=model.PaymentProof} "已提交"
// @Failure 400 {object} util.Response "字段缺失"
// @Failure 409 {object} util.Response "当前支付状态不允许提交"
// @Router /api/courses/{slug}/payments/partial [post]
func (c *PaymentController) SubmitPartialProof(ctx *gin.Context) {
	c.submitProof(ctx, model.PaymentKindPartial)
}

// SubmitFullProof godoc
// @Summary 提交全额/尾款支付凭证
// @Description 未支付或已部分支付状态可发起，成功后进入待核验
// @Tags 支付
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Param   accountHolderName formData string true "账户持有人"
// @Param   bankName formData string true "银行名称"
// @Param   ifscCode formData string true "IFSC 代码"
// @Param   accountNumber formData string true "账号"
// @Param   transactionId formData string true "交易号"
// @Param   amount formData int false "金额"
// @Param   screenshot formData file false "转账截图"
// @Success 201 {object} util.Response{data=model.PaymentProof} "已提交"
// @Failure 409 {object} util.Response "当前支付状态不允许提交"
// @Router /api/courses/{slug}/payments/full [post]
func (c *PaymentController) SubmitFullProof(ctx *gin.Context) {
	c.submitProof(ctx, model.PaymentKindFull)
}

// ListMyProofs godoc
// @Summary 我的支付凭证历史
// @Tags 支付
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Success 200 {object} util.Response{data=[]model.PaymentProof} "成功"
// @Router /api/courses/{slug}/payments [get]
func (c *PaymentController) ListMyProofs(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	proofs, err := c.PaymentService.ListMine(claims.UserID, ctx.Param("slug"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, proofs)
}

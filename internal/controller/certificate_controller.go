package controller

import (
	"certilearn_backend/internal/service"
	"certilearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// GetCertificate godoc
// @Summary 查询课程证书
// @Description 未满足条件返回对应分支（payment_required / pending_verification / course_incomplete），不是错误
// @Tags 证书
// @Produce  json
// @Security BearerAuth
// @Param   slug path string true "课程 slug"
// @Success 200 {object} util.Response{data=service.CertificateStatus} "成功"
// @Failure 404 {object} util.Response "未报名"
// @Router /api/courses/{slug}/certificate [get]
func (c *CertificateController) GetCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	status, err := c.CertificateService.Status(claims.UserID, ctx.Param("slug"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	util.Success(ctx, status)
}

// ListMyCertificates godoc
// @Summary 我的证书列表
// @Tags 证书
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Certificate} "成功"
// @Router /api/certificates [get]
func (c *CertificateController) ListMyCertificates(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	certs, err := c.CertificateService.ListMine(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, certs)
}

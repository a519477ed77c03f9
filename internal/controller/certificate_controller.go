package controller

import (
	"coder_edu_progress/internal/service"
	"coder_edu_progress/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// @Summary 检查并签发课程证书
// @Description 已有证书时原样返回；尚未完成课程时 issued 为 false
// @Tags 证书
// @Produce json
// @Param userId path int true "用户ID"
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /users/{userId}/courses/{courseId}/certificate [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	cert, err := c.CertificateService.CheckAndIssue(ctx.Request.Context(), userID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"issued":      cert != nil,
		"certificate": cert,
	})
}

// @Summary 用户证书列表
// @Tags 证书
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Router /users/{userId}/certificates [get]
func (c *CertificateController) ListForUser(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	certs, err := c.CertificateService.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, certs)
}

// @Summary 按编号查询证书
// @Tags 证书
// @Produce json
// @Param number path string true "证书编号"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /certificates/{number} [get]
func (c *CertificateController) GetByNumber(ctx *gin.Context) {
	cert, err := c.CertificateService.FindByNumber(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, cert)
}

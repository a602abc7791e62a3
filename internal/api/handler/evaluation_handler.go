package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"havia/backend/internal/dto"
	"havia/backend/internal/service"
	"havia/backend/pkg/response"
)

// EvaluationHandler 评价与证书模块 HTTP 处理器
type EvaluationHandler struct {
	evaluationSvc service.EvaluationService
}

// NewEvaluationHandler 创建 EvaluationHandler
func NewEvaluationHandler(evaluationSvc service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationSvc: evaluationSvc}
}

// SubmitEvaluation 提交评价
// POST /api/v1/mentorships/:id/evaluations
func (h *EvaluationHandler) SubmitEvaluation(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	var req dto.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	evaluation, err := h.evaluationSvc.SubmitEvaluation(c.Request.Context(), mentorshipID, &req, userID)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.Created(c, evaluation)
}

// ListEvaluations 获取辅导关系的评价列表
// GET /api/v1/mentorships/:id/evaluations
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	evaluations, err := h.evaluationSvc.ListByMentorship(c.Request.Context(), mentorshipID)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": evaluations})
}

// IssueCertificate 颁发结业证书（管理员）
// POST /api/v1/mentorships/:id/certificate
func (h *EvaluationHandler) IssueCertificate(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cert, err := h.evaluationSvc.IssueCertificate(c.Request.Context(), mentorshipID, callerID)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.Created(c, cert)
}

// GetCertificate 获取辅导关系的结业证书
// GET /api/v1/mentorships/:id/certificate
func (h *EvaluationHandler) GetCertificate(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	cert, err := h.evaluationSvc.GetCertificate(c.Request.Context(), mentorshipID)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, cert)
}

// VerifyCertificate 按编号核验证书（公开接口）
// GET /api/v1/certificates/:number
func (h *EvaluationHandler) VerifyCertificate(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		response.BadRequest(c, 10001, "证书编号不能为空")
		return
	}

	cert, err := h.evaluationSvc.VerifyCertificate(c.Request.Context(), number)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, cert)
}

// handleEvaluationError 统一处理评价模块业务错误
func (h *EvaluationHandler) handleEvaluationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEvaluationDuplicate):
		response.Conflict(c, 17001, "已提交过同类型评价")
	case errors.Is(err, service.ErrEvaluationNotAllowed):
		response.BadRequest(c, 17002, "当前辅导状态不允许提交该评价")
	case errors.Is(err, service.ErrCertificateNotFound):
		response.NotFound(c, 17003, "证书不存在")
	case errors.Is(err, service.ErrCertificateNotEligible):
		response.BadRequest(c, 17004, "辅导关系未完成，不可颁发证书")
	case errors.Is(err, service.ErrCertificateIssued):
		response.Conflict(c, 17005, "证书已颁发")
	case errors.Is(err, service.ErrMentorshipNotFound):
		response.NotFound(c, 15001, "辅导关系不存在")
	case errors.Is(err, service.ErrMentorshipNotParticipant):
		response.Forbidden(c, 15002, "仅辅导关系双方可执行此操作")
	default:
		response.InternalError(c)
	}
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"havia/backend/internal/dto"
	"havia/backend/internal/service"
	"havia/backend/pkg/response"
)

// MentorshipHandler 辅导关系模块 HTTP 处理器
type MentorshipHandler struct {
	mentorshipSvc service.MentorshipService
}

// NewMentorshipHandler 创建 MentorshipHandler
func NewMentorshipHandler(mentorshipSvc service.MentorshipService) *MentorshipHandler {
	return &MentorshipHandler{mentorshipSvc: mentorshipSvc}
}

// GetMentorship 获取辅导关系详情
// GET /api/v1/mentorships/:id
func (h *MentorshipHandler) GetMentorship(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	mentorship, err := h.mentorshipSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleMentorshipError(c, err)
		return
	}

	response.OK(c, mentorship)
}

// ListMyMentorships 获取与我相关的辅导关系
// GET /api/v1/mentorships/mine
func (h *MentorshipHandler) ListMyMentorships(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	mentorships, err := h.mentorshipSvc.ListMine(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		h.handleMentorshipError(c, err)
		return
	}

	response.OK(c, gin.H{"list": mentorships})
}

// ListMentorships 按周期获取辅导关系列表（管理员）
// GET /api/v1/mentorships
func (h *MentorshipHandler) ListMentorships(c *gin.Context) {
	var req dto.MentorshipListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorships, err := h.mentorshipSvc.ListByCycle(c.Request.Context(), &req)
	if err != nil {
		h.handleMentorshipError(c, err)
		return
	}

	response.OK(c, gin.H{"list": mentorships})
}

// LogSession 记录一次辅导会话
// POST /api/v1/mentorships/:id/sessions
func (h *MentorshipHandler) LogSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	mentorship, err := h.mentorshipSvc.LogSession(c.Request.Context(), id, userID)
	if err != nil {
		h.handleMentorshipError(c, err)
		return
	}

	response.OK(c, mentorship)
}

// CompleteMentorship 完结辅导关系
// PUT /api/v1/mentorships/:id/complete
func (h *MentorshipHandler) CompleteMentorship(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	mentorship, err := h.mentorshipSvc.Complete(c.Request.Context(), id, userID)
	if err != nil {
		h.handleMentorshipError(c, err)
		return
	}

	response.OK(c, mentorship)
}

// CancelMentorship 取消辅导关系
// PUT /api/v1/mentorships/:id/cancel
func (h *MentorshipHandler) CancelMentorship(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	var req dto.CancelMentorshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	mentorship, err := h.mentorshipSvc.Cancel(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.handleMentorshipError(c, err)
		return
	}

	response.OK(c, mentorship)
}

// handleMentorshipError 统一处理辅导关系模块业务错误
func (h *MentorshipHandler) handleMentorshipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMentorshipNotFound):
		response.NotFound(c, 15001, "辅导关系不存在")
	case errors.Is(err, service.ErrMentorshipNotParticipant):
		response.Forbidden(c, 15002, "仅辅导关系双方可执行此操作")
	case errors.Is(err, service.ErrMentorshipInvalidTransition):
		response.BadRequest(c, 15003, "辅导关系状态不允许该操作")
	case errors.Is(err, service.ErrMentorshipNotActive):
		response.BadRequest(c, 15004, "辅导关系未处于进行中状态")
	default:
		response.InternalError(c)
	}
}

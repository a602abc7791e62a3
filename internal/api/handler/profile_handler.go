package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"havia/backend/internal/dto"
	"havia/backend/internal/service"
	"havia/backend/pkg/response"
)

// ProfileHandler 档案与可用时间模块 HTTP 处理器
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler 创建 ProfileHandler
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// ────────────────────── 导师档案 ──────────────────────

// UpsertMentorProfile 创建或更新本人导师档案
// PUT /api/v1/profiles/mentor
func (h *ProfileHandler) UpsertMentorProfile(c *gin.Context) {
	var req dto.UpsertMentorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.UpsertMentorProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// GetMentorProfile 获取导师档案
// GET /api/v1/profiles/mentor/:userId
func (h *ProfileHandler) GetMentorProfile(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.BadRequest(c, 10001, "用户ID不能为空")
		return
	}

	profile, err := h.profileSvc.GetMentorProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// VerifyMentor 管理员认证/取消认证导师
// PUT /api/v1/profiles/mentor/:userId/verify
func (h *ProfileHandler) VerifyMentor(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.BadRequest(c, 10001, "用户ID不能为空")
		return
	}

	var req struct {
		Verified *bool `json:"verified" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.VerifyMentor(c.Request.Context(), userID, *req.Verified, callerID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// ────────────────────── 学员档案 ──────────────────────

// UpsertMenteeProfile 创建或更新本人学员档案
// PUT /api/v1/profiles/mentee
func (h *ProfileHandler) UpsertMenteeProfile(c *gin.Context) {
	var req dto.UpsertMenteeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.UpsertMenteeProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// GetMenteeProfile 获取学员档案
// GET /api/v1/profiles/mentee/:userId
func (h *ProfileHandler) GetMenteeProfile(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.BadRequest(c, 10001, "用户ID不能为空")
		return
	}

	profile, err := h.profileSvc.GetMenteeProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// ────────────────────── 可用时间 ──────────────────────

// AddSlot 添加可用时间段
// POST /api/v1/availability
func (h *ProfileHandler) AddSlot(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slot, err := h.profileSvc.AddSlot(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.Created(c, slot)
}

// ListSlots 获取本人可用时间段列表
// GET /api/v1/availability
func (h *ProfileHandler) ListSlots(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slots, err := h.profileSvc.ListSlots(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// DeleteSlot 删除可用时间段
// DELETE /api/v1/availability/:id
func (h *ProfileHandler) DeleteSlot(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "时间段ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.profileSvc.DeleteSlot(c.Request.Context(), id, userID); err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportICS 导入 ICS 日历并取反生成空闲时段
// POST /api/v1/availability/import-ics
func (h *ProfileHandler) ImportICS(c *gin.Context) {
	var req dto.ImportICSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.profileSvc.ImportICS(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, result)
}

// handleProfileError 统一处理档案模块业务错误
func (h *ProfileHandler) handleProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMentorProfileNotFound):
		response.NotFound(c, 13001, "导师档案不存在")
	case errors.Is(err, service.ErrMenteeProfileNotFound):
		response.NotFound(c, 13002, "学员档案不存在")
	case errors.Is(err, service.ErrMaxMenteesBelowLoad):
		response.BadRequest(c, 13003, "带教上限不能低于当前在辅人数")
	case errors.Is(err, service.ErrSlotTimeInvalid):
		response.BadRequest(c, 13004, "时间段结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 13005, "可用时间段不存在")
	case errors.Is(err, service.ErrICSParseFailed):
		response.BadRequest(c, 13006, "日历文件解析失败")
	case errors.Is(err, service.ErrICSNoFreeSlots):
		response.BadRequest(c, 13007, "日历取反后无可用空闲时段")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/profile_handler.go

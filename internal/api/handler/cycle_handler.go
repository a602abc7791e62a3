package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"havia/backend/internal/dto"
	"havia/backend/internal/service"
	"havia/backend/pkg/response"
)

// CycleHandler 辅导周期模块 HTTP 处理器
type CycleHandler struct {
	cycleSvc service.CycleService
}

// NewCycleHandler 创建 CycleHandler
func NewCycleHandler(cycleSvc service.CycleService) *CycleHandler {
	return &CycleHandler{cycleSvc: cycleSvc}
}

// ListCycles 获取周期列表
// GET /api/v1/cycles
func (h *CycleHandler) ListCycles(c *gin.Context) {
	cycles, err := h.cycleSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": cycles})
}

// GetCycle 获取周期详情
// GET /api/v1/cycles/:id
func (h *CycleHandler) GetCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	cycle, err := h.cycleSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// GetActiveCycle 获取当前进行中的周期
// GET /api/v1/cycles/active
func (h *CycleHandler) GetActiveCycle(c *gin.Context) {
	cycle, err := h.cycleSvc.GetActive(c.Request.Context())
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// CreateCycle 创建周期
// POST /api/v1/cycles
func (h *CycleHandler) CreateCycle(c *gin.Context) {
	var req dto.CreateCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.cycleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.Created(c, cycle)
}

// LaunchCycle 启动周期（UPCOMING → ACTIVE）
// PUT /api/v1/cycles/:id/launch
func (h *CycleHandler) LaunchCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.cycleSvc.Launch(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// CompleteCycle 归档周期（ACTIVE → COMPLETED）
// PUT /api/v1/cycles/:id/complete
func (h *CycleHandler) CompleteCycle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cycle, err := h.cycleSvc.Complete(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, cycle)
}

// RegisterInterest 登记参与意向
// POST /api/v1/cycles/:id/interests
func (h *CycleHandler) RegisterInterest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	var req dto.RegisterInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	interest, err := h.cycleSvc.RegisterInterest(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.Created(c, interest)
}

// WithdrawInterest 撤回参与意向
// DELETE /api/v1/cycles/:id/interests
func (h *CycleHandler) WithdrawInterest(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.cycleSvc.WithdrawInterest(c.Request.Context(), id, userID); err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListInterests 获取周期意向列表（可按角色过滤）
// GET /api/v1/cycles/:id/interests
func (h *CycleHandler) ListInterests(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周期ID不能为空")
		return
	}

	interests, err := h.cycleSvc.ListInterests(c.Request.Context(), id, c.Query("role"))
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": interests})
}

// handleCycleError 统一处理周期模块业务错误
func (h *CycleHandler) handleCycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCycleNotFound):
		response.NotFound(c, 12001, "辅导周期不存在")
	case errors.Is(err, service.ErrCycleDateInvalid):
		response.BadRequest(c, 12002, "周期结束日期必须晚于开始日期")
	case errors.Is(err, service.ErrCycleInvalidTransition):
		response.BadRequest(c, 12003, "周期状态不允许该操作")
	case errors.Is(err, service.ErrNoActiveCycle):
		response.NotFound(c, 12004, "当前没有进行中的辅导周期")
	case errors.Is(err, service.ErrInterestCycleClosed):
		response.BadRequest(c, 12005, "该周期已结束，不可登记意向")
	case errors.Is(err, service.ErrInterestNotFound):
		response.NotFound(c, 12006, "未登记参与意向")
	case errors.Is(err, service.ErrCycleNotActive):
		response.BadRequest(c, 12007, "周期未处于进行中状态")
	default:
		response.InternalError(c)
	}
}

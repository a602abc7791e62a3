package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"havia/backend/internal/dto"
	"havia/backend/internal/service"
	"havia/backend/pkg/response"
)

// MatchingHandler 匹配模块 HTTP 处理器
type MatchingHandler struct {
	matchingSvc service.MatchingService
}

// NewMatchingHandler 创建 MatchingHandler
func NewMatchingHandler(matchingSvc service.MatchingService) *MatchingHandler {
	return &MatchingHandler{matchingSvc: matchingSvc}
}

// RunMatching 执行自动匹配（管理员）
// POST /api/v1/matching/run
func (h *MatchingHandler) RunMatching(c *gin.Context) {
	var req dto.RunMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// auto_approve=true 时跳过双方确认直接生效
	autoApprove := c.Query("auto_approve") == "true"

	result, err := h.matchingSvc.Run(c.Request.Context(), &req, autoApprove, callerID)
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, result)
}

// ManualAssign 管理员手动指派配对
// POST /api/v1/matching/manual
func (h *MatchingHandler) ManualAssign(c *gin.Context) {
	var req dto.ManualAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	match, err := h.matchingSvc.ManualAssign(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.Created(c, match)
}

// GetMatch 获取匹配详情
// GET /api/v1/matches/:id
func (h *MatchingHandler) GetMatch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "匹配ID不能为空")
		return
	}

	match, err := h.matchingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, match)
}

// ListMatches 按周期获取匹配列表（管理员）
// GET /api/v1/matches
func (h *MatchingHandler) ListMatches(c *gin.Context) {
	var req dto.MatchListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	matches, err := h.matchingSvc.ListByCycle(c.Request.Context(), &req)
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": matches})
}

// ListMyMatches 获取与我相关的匹配
// GET /api/v1/matches/mine
func (h *MatchingHandler) ListMyMatches(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	matches, err := h.matchingSvc.ListMine(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": matches})
}

// RespondMatch 匹配一方确认或拒绝
// PUT /api/v1/matches/:id/respond
func (h *MatchingHandler) RespondMatch(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "匹配ID不能为空")
		return
	}

	var req dto.RespondMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	match, err := h.matchingSvc.Respond(c.Request.Context(), id, userID, *req.Accept)
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, match)
}

// BatchApprove 批量确认匹配（管理员，逐条处理互不影响）
// POST /api/v1/matches/batch-approve
func (h *MatchingHandler) BatchApprove(c *gin.Context) {
	var req dto.BatchApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result := h.matchingSvc.ApproveMany(c.Request.Context(), req.MatchIDs, callerID)
	response.OK(c, result)
}

// GetCandidatePool 获取候选池（管理员）
// GET /api/v1/matching/candidates
func (h *MatchingHandler) GetCandidatePool(c *gin.Context) {
	// cycle_id 省略时默认使用进行中的周期
	pool, err := h.matchingSvc.GetCandidatePool(c.Request.Context(), c.Query("cycle_id"))
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, pool)
}

// SendOnboardingNotifications 群发入驻引导通知（管理员）
// POST /api/v1/matching/onboarding-notify
func (h *MatchingHandler) SendOnboardingNotifications(c *gin.Context) {
	var req dto.OnboardingNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.matchingSvc.SendOnboardingNotifications(c.Request.Context(), &req)
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, result)
}

// ListRules 获取匹配规则列表
// GET /api/v1/matching/rules
func (h *MatchingHandler) ListRules(c *gin.Context) {
	rules, err := h.matchingSvc.ListRules(c.Request.Context())
	if err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rules})
}

// UpdateRule 启用/停用匹配规则（管理员）
// PUT /api/v1/matching/rules/:code
func (h *MatchingHandler) UpdateRule(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "规则编码不能为空")
		return
	}

	var req dto.UpdateMatchRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.matchingSvc.SetRuleEnabled(c.Request.Context(), code, *req.IsEnabled, callerID); err != nil {
		h.handleMatchingError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleMatchingError 统一处理匹配模块业务错误
func (h *MatchingHandler) handleMatchingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		response.NotFound(c, 14001, "匹配不存在")
	case errors.Is(err, service.ErrMatchNotPending):
		response.BadRequest(c, 14002, "匹配非待确认状态，不可执行此操作")
	case errors.Is(err, service.ErrMatchNotParticipant):
		response.Forbidden(c, 14003, "仅匹配双方可执行此操作")
	case errors.Is(err, service.ErrMatchPairExists):
		response.Conflict(c, 14004, "该配对在本周期已存在未被拒绝的匹配")
	case errors.Is(err, service.ErrMentorNotEligible):
		response.BadRequest(c, 14005, "导师不符合匹配条件")
	case errors.Is(err, service.ErrMenteeNotEligible):
		response.BadRequest(c, 14006, "学员不符合匹配条件")
	case errors.Is(err, service.ErrMentorCapacityFull):
		response.Conflict(c, 14007, "导师带教名额已满")
	case errors.Is(err, service.ErrCycleCapacityReached):
		response.Conflict(c, 14008, "周期辅导关系数已达上限")
	case errors.Is(err, service.ErrMatchRuleNotFound):
		response.NotFound(c, 14009, "匹配规则不存在")
	case errors.Is(err, service.ErrMenteeAlreadyMatched):
		response.Conflict(c, 14010, "学员在本周期已有进行中的匹配")
	case errors.Is(err, service.ErrCycleNotFound):
		response.NotFound(c, 12001, "辅导周期不存在")
	case errors.Is(err, service.ErrCycleNotActive):
		response.BadRequest(c, 12007, "周期未处于进行中状态")
	case errors.Is(err, service.ErrNoActiveCycle):
		response.NotFound(c, 12008, "当前没有进行中的辅导周期")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/matching_handler.go

package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"havia/backend/internal/dto"
	"havia/backend/internal/service"
	"havia/backend/pkg/response"
)

// ProgramHandler 周计划与任务模块 HTTP 处理器
type ProgramHandler struct {
	programSvc service.ProgramService
}

// NewProgramHandler 创建 ProgramHandler
func NewProgramHandler(programSvc service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programSvc: programSvc}
}

// GetProgram 获取辅导关系的周计划
// GET /api/v1/mentorships/:id/program
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	program, err := h.programSvc.GetByMentorship(c.Request.Context(), mentorshipID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, program)
}

// AdvanceWeek 推进周计划到下一周
// PUT /api/v1/mentorships/:id/program/advance
func (h *ProgramHandler) AdvanceWeek(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	program, err := h.programSvc.AdvanceWeek(c.Request.Context(), mentorshipID, userID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, program)
}

// CompleteProgram 提前结束周计划
// PUT /api/v1/mentorships/:id/program/complete
func (h *ProgramHandler) CompleteProgram(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	program, err := h.programSvc.CompleteProgram(c.Request.Context(), mentorshipID, userID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, program)
}

// CreateTask 创建任务
// POST /api/v1/mentorships/:id/tasks
func (h *ProgramHandler) CreateTask(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.programSvc.CreateTask(c.Request.Context(), mentorshipID, &req, userID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.Created(c, task)
}

// ListTasks 获取任务列表（可按周过滤）
// GET /api/v1/mentorships/:id/tasks
func (h *ProgramHandler) ListTasks(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	week := 0
	if raw := c.Query("week"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(c, 10001, "周次参数无效")
			return
		}
		week = parsed
	}

	tasks, err := h.programSvc.ListTasks(c.Request.Context(), mentorshipID, week)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, gin.H{"list": tasks})
}

// StartTask 开始任务（PENDING → IN_PROGRESS）
// PUT /api/v1/tasks/:id/start
func (h *ProgramHandler) StartTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		response.BadRequest(c, 10001, "任务ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.programSvc.StartTask(c.Request.Context(), taskID, userID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, task)
}

// CompleteTask 完成任务（重复调用幂等）
// PUT /api/v1/tasks/:id/complete
func (h *ProgramHandler) CompleteTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		response.BadRequest(c, 10001, "任务ID不能为空")
		return
	}

	var req dto.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	task, err := h.programSvc.CompleteTask(c.Request.Context(), taskID, &req, userID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, task)
}

// ListProgress 获取每周进度快照
// GET /api/v1/mentorships/:id/progress
func (h *ProgramHandler) ListProgress(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	snapshots, err := h.programSvc.ListProgress(c.Request.Context(), mentorshipID)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, gin.H{"list": snapshots})
}

// RecomputeProgress 重算指定周进度快照
// PUT /api/v1/mentorships/:id/progress/:week
func (h *ProgramHandler) RecomputeProgress(c *gin.Context) {
	mentorshipID := c.Param("id")
	if mentorshipID == "" {
		response.BadRequest(c, 10001, "辅导关系ID不能为空")
		return
	}

	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		response.BadRequest(c, 10001, "周次参数无效")
		return
	}

	progress, err := h.programSvc.RecomputeProgress(c.Request.Context(), mentorshipID, week)
	if err != nil {
		h.handleProgramError(c, err)
		return
	}

	response.OK(c, progress)
}

// handleProgramError 统一处理周计划模块业务错误
func (h *ProgramHandler) handleProgramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		response.NotFound(c, 16001, "周计划不存在")
	case errors.Is(err, service.ErrProgramCompleted):
		response.BadRequest(c, 16002, "周计划已完成，不可再推进")
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 16003, "任务不存在")
	case errors.Is(err, service.ErrTaskInvalidTransition):
		response.BadRequest(c, 16004, "任务状态不允许该操作")
	case errors.Is(err, service.ErrTaskTypeInvalid):
		response.BadRequest(c, 16005, "任务类型无效")
	case errors.Is(err, service.ErrTaskWeekOutOfRange):
		response.BadRequest(c, 16006, "任务周次超出计划范围")
	case errors.Is(err, service.ErrProgressWeekOutOfRange):
		response.BadRequest(c, 16007, "进度周次超出计划范围")
	case errors.Is(err, service.ErrProgramMentorshipClosed):
		response.BadRequest(c, 16008, "辅导关系已结束，不可操作周计划")
	case errors.Is(err, service.ErrMentorshipNotFound):
		response.NotFound(c, 15001, "辅导关系不存在")
	default:
		response.InternalError(c)
	}
}

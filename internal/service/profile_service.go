package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 档案模块业务错误 ──

var (
	ErrMentorProfileNotFound = errors.New("导师档案不存在")
	ErrMenteeProfileNotFound = errors.New("学员档案不存在")
	ErrSlotNotFound          = errors.New("可用时间段不存在")
	ErrSlotTimeInvalid       = errors.New("时间段结束时间必须晚于开始时间")
	ErrMaxMenteesBelowLoad   = errors.New("带教上限不能低于当前在辅人数")
	ErrICSNoFreeSlots        = errors.New("日历取反后无可用空闲时段")
	ErrICSParseFailed        = errors.New("日历文件解析失败")
)

// ProfileService 档案与可用时间业务接口
type ProfileService interface {
	UpsertMentorProfile(ctx context.Context, userID string, req *dto.UpsertMentorProfileRequest) (*dto.MentorProfileResponse, error)
	GetMentorProfile(ctx context.Context, userID string) (*dto.MentorProfileResponse, error)
	// VerifyMentor 管理员认证导师（M1 硬规则的准入开关）
	VerifyMentor(ctx context.Context, userID string, verified bool, callerID string) (*dto.MentorProfileResponse, error)
	UpsertMenteeProfile(ctx context.Context, userID string, req *dto.UpsertMenteeProfileRequest) (*dto.MenteeProfileResponse, error)
	GetMenteeProfile(ctx context.Context, userID string) (*dto.MenteeProfileResponse, error)
	AddSlot(ctx context.Context, userID string, req *dto.CreateSlotRequest) (*dto.SlotResponse, error)
	ListSlots(ctx context.Context, userID string) ([]dto.SlotResponse, error)
	DeleteSlot(ctx context.Context, slotID, userID string) error
	// ImportICS 解析日历忙时并取反写入空闲时段，覆盖上次导入结果
	ImportICS(ctx context.Context, userID string, req *dto.ImportICSRequest) (*dto.ImportICSResponse, error)
}

type profileService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

// ────────────────────── 导师档案 ──────────────────────

func (s *profileService) UpsertMentorProfile(ctx context.Context, userID string, req *dto.UpsertMentorProfileRequest) (*dto.MentorProfileResponse, error) {
	maxMentees := req.MaxMentees
	if maxMentees <= 0 {
		maxMentees = 3
	}

	existing, err := s.repo.MentorProfile.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询导师档案失败", zap.Error(err))
		return nil, err
	}
	if existing != nil && maxMentees < existing.CurrentMentees {
		return nil, ErrMaxMenteesBelowLoad
	}

	profile := &model.MentorProfile{
		UserID:         userID,
		MaxMentees:     maxMentees,
		Themes:         model.StringArray(req.Themes),
		Industry:       req.Industry,
		Company:        req.Company,
		MentoringStyle: req.MentoringStyle,
		Preferences:    model.StringArray(req.Preferences),
		IsActive:       true,
	}
	if req.Preferences == nil {
		profile.Preferences = model.StringArray{}
	}
	if existing != nil {
		profile.IsVerified = existing.IsVerified
	}
	if req.IsActive != nil {
		profile.IsActive = *req.IsActive
	}
	profile.CreatedBy = &userID
	profile.UpdatedBy = &userID

	if err := s.repo.MentorProfile.Upsert(ctx, profile); err != nil {
		s.logger.Error("保存导师档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return s.GetMentorProfile(ctx, userID)
}

func (s *profileService) GetMentorProfile(ctx context.Context, userID string) (*dto.MentorProfileResponse, error) {
	profile, err := s.repo.MentorProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorProfileNotFound
		}
		s.logger.Error("查询导师档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toMentorProfileResponse(profile), nil
}

func (s *profileService) VerifyMentor(ctx context.Context, userID string, verified bool, callerID string) (*dto.MentorProfileResponse, error) {
	profile, err := s.repo.MentorProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorProfileNotFound
		}
		s.logger.Error("查询导师档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	profile.IsVerified = verified
	profile.UpdatedBy = &callerID
	if err := s.repo.MentorProfile.Upsert(ctx, profile); err != nil {
		s.logger.Error("更新导师认证状态失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.GetMentorProfile(ctx, userID)
}

// ────────────────────── 学员档案 ──────────────────────

func (s *profileService) UpsertMenteeProfile(ctx context.Context, userID string, req *dto.UpsertMenteeProfileRequest) (*dto.MenteeProfileResponse, error) {
	profile := &model.MenteeProfile{
		UserID:           userID,
		FieldOfInterest:  req.FieldOfInterest,
		Skills:           model.StringArray(req.Skills),
		Goals:            model.StringArray(req.Goals),
		ExperienceLevel:  req.ExperienceLevel,
		PreferredStyle:   req.PreferredStyle,
		Preferences:      model.StringArray(req.Preferences),
		CommitmentAgreed: req.CommitmentAgreed,
	}
	if req.Goals == nil {
		profile.Goals = model.StringArray{}
	}
	if req.Preferences == nil {
		profile.Preferences = model.StringArray{}
	}
	profile.CreatedBy = &userID
	profile.UpdatedBy = &userID

	if err := s.repo.MenteeProfile.Upsert(ctx, profile); err != nil {
		s.logger.Error("保存学员档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.GetMenteeProfile(ctx, userID)
}

func (s *profileService) GetMenteeProfile(ctx context.Context, userID string) (*dto.MenteeProfileResponse, error) {
	profile, err := s.repo.MenteeProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenteeProfileNotFound
		}
		s.logger.Error("查询学员档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toMenteeProfileResponse(profile), nil
}

// ────────────────────── 可用时间段 ──────────────────────

func (s *profileService) AddSlot(ctx context.Context, userID string, req *dto.CreateSlotRequest) (*dto.SlotResponse, error) {
	if _, err := timeToMinutes(req.StartTime); err != nil {
		return nil, ErrSlotTimeInvalid
	}
	if _, err := timeToMinutes(req.EndTime); err != nil {
		return nil, ErrSlotTimeInvalid
	}
	if req.EndTime <= req.StartTime {
		return nil, ErrSlotTimeInvalid
	}

	slot := &model.AvailabilitySlot{
		UserID:    userID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Source:    "manual",
	}
	slot.CreatedBy = &userID
	slot.UpdatedBy = &userID

	if err := s.repo.Availability.Create(ctx, slot); err != nil {
		s.logger.Error("新增时间段失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toSlotResponse(slot), nil
}

func (s *profileService) ListSlots(ctx context.Context, userID string) ([]dto.SlotResponse, error) {
	slots, err := s.repo.Availability.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询时间段失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toSlotResponse(&slots[i]))
	}
	return result, nil
}

func (s *profileService) DeleteSlot(ctx context.Context, slotID, userID string) error {
	slots, err := s.repo.Availability.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询时间段失败", zap.Error(err))
		return err
	}
	found := false
	for i := range slots {
		if slots[i].SlotID == slotID {
			found = true
			break
		}
	}
	if !found {
		return ErrSlotNotFound
	}
	if err := s.repo.Availability.Delete(ctx, slotID, userID); err != nil {
		s.logger.Error("删除时间段失败", zap.String("slot_id", slotID), zap.Error(err))
		return err
	}
	return nil
}

func (s *profileService) ImportICS(ctx context.Context, userID string, req *dto.ImportICSRequest) (*dto.ImportICSResponse, error) {
	slots, err := ParseICSToFreeSlots(req.ICSContent, userID, req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParseFailed, err)
	}
	if len(slots) == 0 {
		return nil, ErrICSNoFreeSlots
	}
	for i := range slots {
		slots[i].CreatedBy = &userID
		slots[i].UpdatedBy = &userID
	}

	// 重新导入前清理上次 ICS 来源的时段，手动时段不受影响
	if err := s.repo.Availability.DeleteBySource(ctx, userID, "ics"); err != nil {
		s.logger.Error("清理历史导入时段失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if err := s.repo.Availability.BatchCreate(ctx, slots); err != nil {
		s.logger.Error("写入导入时段失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.ImportICSResponse{SlotsImported: len(slots)}
	for i := range slots {
		resp.Slots = append(resp.Slots, *toSlotResponse(&slots[i]))
	}
	return resp, nil
}

// ── 响应转换 ──

func toMentorProfileResponse(p *model.MentorProfile) *dto.MentorProfileResponse {
	resp := &dto.MentorProfileResponse{
		ID:             p.MentorProfileID,
		UserID:         p.UserID,
		MaxMentees:     p.MaxMentees,
		CurrentMentees: p.CurrentMentees,
		Themes:         p.Themes,
		Industry:       p.Industry,
		Company:        p.Company,
		MentoringStyle: p.MentoringStyle,
		Preferences:    p.Preferences,
		IsVerified:     p.IsVerified,
		IsActive:       p.IsActive,
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
	if p.User != nil {
		resp.User = &dto.UserBrief{ID: p.User.UserID, Name: p.User.Name, Email: p.User.Email}
	}
	for i := range p.Slots {
		resp.Slots = append(resp.Slots, *toSlotResponse(&p.Slots[i]))
	}
	return resp
}

func toMenteeProfileResponse(p *model.MenteeProfile) *dto.MenteeProfileResponse {
	resp := &dto.MenteeProfileResponse{
		ID:               p.MenteeProfileID,
		UserID:           p.UserID,
		FieldOfInterest:  p.FieldOfInterest,
		Skills:           p.Skills,
		Goals:            p.Goals,
		ExperienceLevel:  p.ExperienceLevel,
		PreferredStyle:   p.PreferredStyle,
		Preferences:      p.Preferences,
		CommitmentAgreed: p.CommitmentAgreed,
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
	if p.User != nil {
		resp.User = &dto.UserBrief{ID: p.User.UserID, Name: p.User.Name, Email: p.User.Email}
	}
	for i := range p.Slots {
		resp.Slots = append(resp.Slots, *toSlotResponse(&p.Slots[i]))
	}
	return resp
}

func toSlotResponse(s *model.AvailabilitySlot) *dto.SlotResponse {
	return &dto.SlotResponse{
		ID:        s.SlotID,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Source:    s.Source,
	}
}

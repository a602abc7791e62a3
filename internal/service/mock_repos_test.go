package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"havia/backend/internal/model"
	pkgerrors "havia/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.Name
	}
	if user.Version == 0 {
		user.Version = 1
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// ── Mock CycleRepository ──

type mockCycleRepo struct {
	cycles map[string]*model.Cycle
	seq    int

	// CountMentorships 需要读辅导关系表
	mentorships *mockMentorshipRepo
}

func newMockCycleRepo() *mockCycleRepo {
	return &mockCycleRepo{cycles: make(map[string]*model.Cycle)}
}

func (m *mockCycleRepo) Create(_ context.Context, cycle *model.Cycle) error {
	m.seq++
	if cycle.CycleID == "" {
		cycle.CycleID = fmt.Sprintf("cyc-%d", m.seq)
	}
	if cycle.Version == 0 {
		cycle.Version = 1
	}
	cp := *cycle
	m.cycles[cycle.CycleID] = &cp
	return nil
}

func (m *mockCycleRepo) GetByID(_ context.Context, id string) (*model.Cycle, error) {
	if c, ok := m.cycles[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCycleRepo) List(_ context.Context) ([]model.Cycle, error) {
	var result []model.Cycle
	for _, c := range m.cycles {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *mockCycleRepo) GetActive(_ context.Context) (*model.Cycle, error) {
	for _, c := range m.cycles {
		if c.Status == model.CycleActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCycleRepo) UpdateStatus(_ context.Context, cycle *model.Cycle) error {
	stored, ok := m.cycles[cycle.CycleID]
	if !ok || stored.Version != cycle.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = cycle.Status
	stored.UpdatedBy = cycle.UpdatedBy
	stored.Version++
	cycle.Version = stored.Version
	return nil
}

func (m *mockCycleRepo) CountMentorships(_ context.Context, cycleID string) (int64, error) {
	var count int64
	for _, ms := range m.mentorships.items {
		if ms.CycleID == cycleID && ms.Status != model.MentorshipCancelled {
			count++
		}
	}
	return count, nil
}

// ── Mock InterestRepository ──

// 用切片保持登记顺序（即 created_at 升序），匹配候选池依赖该顺序
type mockInterestRepo struct {
	items []*model.Interest
	seq   int
}

func newMockInterestRepo() *mockInterestRepo {
	return &mockInterestRepo{}
}

func (m *mockInterestRepo) Upsert(_ context.Context, interest *model.Interest) error {
	for _, e := range m.items {
		if e.CycleID == interest.CycleID && e.UserID == interest.UserID {
			e.Role = interest.Role
			e.Status = interest.Status
			e.UpdatedBy = interest.UpdatedBy
			interest.InterestID = e.InterestID
			return nil
		}
	}
	m.seq++
	if interest.InterestID == "" {
		interest.InterestID = fmt.Sprintf("int-%d", m.seq)
	}
	cp := *interest
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockInterestRepo) GetByCycleAndUser(_ context.Context, cycleID, userID string) (*model.Interest, error) {
	for _, e := range m.items {
		if e.CycleID == cycleID && e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInterestRepo) ListByCycleAndRole(_ context.Context, cycleID, role string) ([]model.Interest, error) {
	var result []model.Interest
	for _, e := range m.items {
		if e.CycleID == cycleID && e.Role == role && e.Status == model.InterestInterested {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockInterestRepo) ListInterestedUserIDs(_ context.Context, cycleID string) ([]string, error) {
	var ids []string
	for _, e := range m.items {
		if e.CycleID == cycleID && e.Status == model.InterestInterested {
			ids = append(ids, e.UserID)
		}
	}
	return ids, nil
}

// ── Mock MentorProfileRepository ──

type mockMentorProfileRepo struct {
	profiles map[string]*model.MentorProfile // key = user_id
}

func newMockMentorProfileRepo() *mockMentorProfileRepo {
	return &mockMentorProfileRepo{profiles: make(map[string]*model.MentorProfile)}
}

func (m *mockMentorProfileRepo) Upsert(_ context.Context, profile *model.MentorProfile) error {
	existing, ok := m.profiles[profile.UserID]
	if !ok {
		if profile.MentorProfileID == "" {
			profile.MentorProfileID = "mp-" + profile.UserID
		}
		m.profiles[profile.UserID] = profile
		return nil
	}
	// current_mentees 只能经由 Reserve/Release 变更，不随档案更新
	existing.MaxMentees = profile.MaxMentees
	existing.Themes = profile.Themes
	existing.Industry = profile.Industry
	existing.Company = profile.Company
	existing.MentoringStyle = profile.MentoringStyle
	existing.Preferences = profile.Preferences
	existing.IsVerified = profile.IsVerified
	existing.IsActive = profile.IsActive
	existing.UpdatedBy = profile.UpdatedBy
	return nil
}

func (m *mockMentorProfileRepo) GetByUserID(_ context.Context, userID string) (*model.MentorProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMentorProfileRepo) ListByUserIDs(_ context.Context, userIDs []string) ([]model.MentorProfile, error) {
	var result []model.MentorProfile
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockMentorProfileRepo) ListEligible(_ context.Context, verifiedOnly bool) ([]model.MentorProfile, error) {
	var result []model.MentorProfile
	for _, p := range m.profiles {
		if !p.IsActive || !p.HasCapacity() {
			continue
		}
		if verifiedOnly && !p.IsVerified {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockMentorProfileRepo) ReserveCapacity(_ context.Context, userID string) error {
	p, ok := m.profiles[userID]
	if !ok || p.CurrentMentees >= p.MaxMentees {
		return pkgerrors.ErrCapacityExceeded
	}
	p.CurrentMentees++
	return nil
}

func (m *mockMentorProfileRepo) ReleaseCapacity(_ context.Context, userID string) error {
	if p, ok := m.profiles[userID]; ok && p.CurrentMentees > 0 {
		p.CurrentMentees--
	}
	return nil
}

// ── Mock MenteeProfileRepository ──

type mockMenteeProfileRepo struct {
	profiles map[string]*model.MenteeProfile // key = user_id
}

func newMockMenteeProfileRepo() *mockMenteeProfileRepo {
	return &mockMenteeProfileRepo{profiles: make(map[string]*model.MenteeProfile)}
}

func (m *mockMenteeProfileRepo) Upsert(_ context.Context, profile *model.MenteeProfile) error {
	existing, ok := m.profiles[profile.UserID]
	if !ok {
		if profile.MenteeProfileID == "" {
			profile.MenteeProfileID = "tp-" + profile.UserID
		}
		m.profiles[profile.UserID] = profile
		return nil
	}
	existing.FieldOfInterest = profile.FieldOfInterest
	existing.Skills = profile.Skills
	existing.Goals = profile.Goals
	existing.ExperienceLevel = profile.ExperienceLevel
	existing.PreferredStyle = profile.PreferredStyle
	existing.Preferences = profile.Preferences
	existing.CommitmentAgreed = profile.CommitmentAgreed
	existing.UpdatedBy = profile.UpdatedBy
	return nil
}

func (m *mockMenteeProfileRepo) GetByUserID(_ context.Context, userID string) (*model.MenteeProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMenteeProfileRepo) ListByUserIDs(_ context.Context, userIDs []string) ([]model.MenteeProfile, error) {
	var result []model.MenteeProfile
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

// ── Mock AvailabilitySlotRepository ──

type mockAvailabilityRepo struct {
	slots []*model.AvailabilitySlot
	seq   int
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, slot *model.AvailabilitySlot) error {
	m.seq++
	if slot.SlotID == "" {
		slot.SlotID = fmt.Sprintf("slot-%d", m.seq)
	}
	cp := *slot
	m.slots = append(m.slots, &cp)
	return nil
}

func (m *mockAvailabilityRepo) BatchCreate(ctx context.Context, slots []model.AvailabilitySlot) error {
	for i := range slots {
		if err := m.Create(ctx, &slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAvailabilityRepo) ListByUser(_ context.Context, userID string) ([]model.AvailabilitySlot, error) {
	var result []model.AvailabilitySlot
	for _, s := range m.slots {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockAvailabilityRepo) ListByUserIDs(_ context.Context, userIDs []string) ([]model.AvailabilitySlot, error) {
	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var result []model.AvailabilitySlot
	for _, s := range m.slots {
		if want[s.UserID] {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockAvailabilityRepo) Delete(_ context.Context, slotID, userID string) error {
	kept := m.slots[:0]
	for _, s := range m.slots {
		if s.SlotID == slotID && s.UserID == userID {
			continue
		}
		kept = append(kept, s)
	}
	m.slots = kept
	return nil
}

func (m *mockAvailabilityRepo) DeleteBySource(_ context.Context, userID, source string) error {
	kept := m.slots[:0]
	for _, s := range m.slots {
		if s.UserID == userID && s.Source == source {
			continue
		}
		kept = append(kept, s)
	}
	m.slots = kept
	return nil
}

// ── Mock MatchRepository ──

type mockMatchRepo struct {
	matches []*model.Match
	seq     int

	// 预留/释放名额落在导师档案上
	profiles *mockMentorProfileRepo
}

func newMockMatchRepo(profiles *mockMentorProfileRepo) *mockMatchRepo {
	return &mockMatchRepo{profiles: profiles}
}

func (m *mockMatchRepo) CreateReservingCapacity(ctx context.Context, match *model.Match) error {
	// 部分唯一索引：同配对同周期至多一条未被拒绝的匹配
	for _, e := range m.matches {
		if e.CycleID == match.CycleID && e.MentorID == match.MentorID &&
			e.MenteeID == match.MenteeID && e.Status != model.MatchRejected {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := m.profiles.ReserveCapacity(ctx, match.MentorID); err != nil {
		return err
	}
	m.seq++
	if match.MatchID == "" {
		match.MatchID = fmt.Sprintf("match-%d", m.seq)
	}
	if match.Version == 0 {
		match.Version = 1
	}
	cp := *match
	m.matches = append(m.matches, &cp)
	return nil
}

func (m *mockMatchRepo) find(id string) *model.Match {
	for _, e := range m.matches {
		if e.MatchID == id {
			return e
		}
	}
	return nil
}

func (m *mockMatchRepo) GetByID(_ context.Context, id string) (*model.Match, error) {
	if e := m.find(id); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMatchRepo) GetPairInCycle(_ context.Context, cycleID, mentorID, menteeID string) (*model.Match, error) {
	for _, e := range m.matches {
		if e.CycleID == cycleID && e.MentorID == mentorID &&
			e.MenteeID == menteeID && e.Status != model.MatchRejected {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMatchRepo) ListByCycle(_ context.Context, cycleID, status string) ([]model.Match, error) {
	var result []model.Match
	for _, e := range m.matches {
		if e.CycleID != cycleID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, *e)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].MatchScore > result[j].MatchScore })
	return result, nil
}

func (m *mockMatchRepo) ListByUser(_ context.Context, userID, status string) ([]model.Match, error) {
	var result []model.Match
	for _, e := range m.matches {
		if e.MentorID != userID && e.MenteeID != userID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockMatchRepo) UpdateApproval(_ context.Context, match *model.Match) error {
	stored := m.find(match.MatchID)
	if stored == nil || stored.Version != match.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = match.Status
	stored.MentorApproved = match.MentorApproved
	stored.MenteeApproved = match.MenteeApproved
	stored.UpdatedBy = match.UpdatedBy
	stored.Version++
	match.Version = stored.Version
	return nil
}

func (m *mockMatchRepo) RejectReleasingCapacity(ctx context.Context, match *model.Match) error {
	stored := m.find(match.MatchID)
	if stored == nil || stored.Version != match.Version || stored.Status != model.MatchPending {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = model.MatchRejected
	stored.UpdatedBy = match.UpdatedBy
	stored.Version++
	if err := m.profiles.ReleaseCapacity(ctx, match.MentorID); err != nil {
		return err
	}
	match.Status = model.MatchRejected
	match.Version = stored.Version
	return nil
}

// ── Mock MatchRuleRepository ──

type mockMatchRuleRepo struct {
	rules map[string]*model.MatchRule // key = rule_code
}

func newMockMatchRuleRepo() *mockMatchRuleRepo {
	return &mockMatchRuleRepo{rules: make(map[string]*model.MatchRule)}
}

func (m *mockMatchRuleRepo) List(_ context.Context) ([]model.MatchRule, error) {
	var result []model.MatchRule
	for _, r := range m.rules {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RuleCode < result[j].RuleCode })
	return result, nil
}

func (m *mockMatchRuleRepo) GetByCode(_ context.Context, code string) (*model.MatchRule, error) {
	if r, ok := m.rules[code]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMatchRuleRepo) SetEnabled(_ context.Context, code string, enabled bool, updatedBy *string) error {
	r, ok := m.rules[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.IsEnabled = enabled
	r.UpdatedBy = updatedBy
	return nil
}

// ── Mock MentorshipRepository ──

type mockMentorshipRepo struct {
	items []*model.Mentorship
	seq   int

	profiles *mockMentorProfileRepo
	programs *mockProgramRepo
}

func newMockMentorshipRepo(profiles *mockMentorProfileRepo, programs *mockProgramRepo) *mockMentorshipRepo {
	return &mockMentorshipRepo{profiles: profiles, programs: programs}
}

func (m *mockMentorshipRepo) CreateWithProgram(ctx context.Context, mentorship *model.Mentorship, program *model.Program) error {
	// match_id 唯一索引兜底
	for _, e := range m.items {
		if e.MatchID == mentorship.MatchID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if mentorship.MentorshipID == "" {
		mentorship.MentorshipID = fmt.Sprintf("ms-%d", m.seq)
	}
	if mentorship.Version == 0 {
		mentorship.Version = 1
	}
	cp := *mentorship
	m.items = append(m.items, &cp)

	program.MentorshipID = mentorship.MentorshipID
	return m.programs.Create(ctx, program)
}

func (m *mockMentorshipRepo) find(id string) *model.Mentorship {
	for _, e := range m.items {
		if e.MentorshipID == id {
			return e
		}
	}
	return nil
}

func (m *mockMentorshipRepo) GetByID(_ context.Context, id string) (*model.Mentorship, error) {
	if e := m.find(id); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMentorshipRepo) GetByMatchID(_ context.Context, matchID string) (*model.Mentorship, error) {
	for _, e := range m.items {
		if e.MatchID == matchID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMentorshipRepo) ListByCycle(_ context.Context, cycleID, status string) ([]model.Mentorship, error) {
	var result []model.Mentorship
	for _, e := range m.items {
		if e.CycleID != cycleID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockMentorshipRepo) ListByUser(_ context.Context, userID, status string) ([]model.Mentorship, error) {
	var result []model.Mentorship
	for _, e := range m.items {
		if e.MentorID != userID && e.MenteeID != userID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockMentorshipRepo) applyTerminal(stored, mentorship *model.Mentorship) {
	stored.Status = mentorship.Status
	stored.SessionsCompleted = mentorship.SessionsCompleted
	stored.EngagementScore = mentorship.EngagementScore
	stored.SatisfactionScore = mentorship.SatisfactionScore
	stored.CertificateID = mentorship.CertificateID
	stored.CancelReason = mentorship.CancelReason
	stored.StartedAt = mentorship.StartedAt
	stored.CompletedAt = mentorship.CompletedAt
	stored.UpdatedBy = mentorship.UpdatedBy
	stored.Version++
	mentorship.Version = stored.Version
}

func (m *mockMentorshipRepo) UpdateStatus(_ context.Context, mentorship *model.Mentorship) error {
	stored := m.find(mentorship.MentorshipID)
	if stored == nil || stored.Version != mentorship.Version {
		return pkgerrors.ErrOptimisticLock
	}
	m.applyTerminal(stored, mentorship)
	return nil
}

func (m *mockMentorshipRepo) TerminateReleasingCapacity(ctx context.Context, mentorship *model.Mentorship) error {
	stored := m.find(mentorship.MentorshipID)
	if stored == nil || stored.Version != mentorship.Version {
		return pkgerrors.ErrOptimisticLock
	}
	m.applyTerminal(stored, mentorship)
	return m.profiles.ReleaseCapacity(ctx, mentorship.MentorID)
}

func (m *mockMentorshipRepo) IncrementSessions(_ context.Context, id string) error {
	if stored := m.find(id); stored != nil && stored.Status == model.MentorshipActive {
		stored.SessionsCompleted++
	}
	return nil
}

// ── Mock ProgramRepository ──

type mockProgramRepo struct {
	programs map[string]*model.Program // key = program_id
	seq      int
}

func newMockProgramRepo() *mockProgramRepo {
	return &mockProgramRepo{programs: make(map[string]*model.Program)}
}

func (m *mockProgramRepo) Create(_ context.Context, program *model.Program) error {
	m.seq++
	if program.ProgramID == "" {
		program.ProgramID = fmt.Sprintf("prog-%d", m.seq)
	}
	if program.Version == 0 {
		program.Version = 1
	}
	cp := *program
	m.programs[program.ProgramID] = &cp
	return nil
}

func (m *mockProgramRepo) GetByID(_ context.Context, id string) (*model.Program, error) {
	if p, ok := m.programs[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) GetByMentorshipID(_ context.Context, mentorshipID string) (*model.Program, error) {
	for _, p := range m.programs {
		if p.MentorshipID == mentorshipID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgramRepo) UpdateWeek(_ context.Context, program *model.Program) error {
	stored, ok := m.programs[program.ProgramID]
	if !ok || stored.Version != program.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Week = program.Week
	stored.Status = program.Status
	stored.CompletedAt = program.CompletedAt
	stored.UpdatedBy = program.UpdatedBy
	stored.Version++
	program.Version = stored.Version
	return nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct {
	tasks []*model.Task
	seq   int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	m.seq++
	if task.TaskID == "" {
		task.TaskID = fmt.Sprintf("task-%d", m.seq)
	}
	if task.Version == 0 {
		task.Version = 1
	}
	cp := *task
	m.tasks = append(m.tasks, &cp)
	return nil
}

func (m *mockTaskRepo) find(id string) *model.Task {
	for _, e := range m.tasks {
		if e.TaskID == id {
			return e
		}
	}
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	if e := m.find(id); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) ListByMentorship(_ context.Context, mentorshipID string) ([]model.Task, error) {
	var result []model.Task
	for _, e := range m.tasks {
		if e.MentorshipID == mentorshipID {
			result = append(result, *e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Week < result[j].Week })
	return result, nil
}

func (m *mockTaskRepo) ListByMentorshipAndWeek(_ context.Context, mentorshipID string, week int) ([]model.Task, error) {
	var result []model.Task
	for _, e := range m.tasks {
		if e.MentorshipID == mentorshipID && e.Week == week {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) UpdateStatus(_ context.Context, task *model.Task) error {
	stored := m.find(task.TaskID)
	if stored == nil || stored.Version != task.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = task.Status
	stored.Feedback = task.Feedback
	stored.CompletedAt = task.CompletedAt
	stored.UpdatedBy = task.UpdatedBy
	stored.Version++
	task.Version = stored.Version
	return nil
}

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	snapshots map[string]*model.Progress // key = mentorship_id:week
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{snapshots: make(map[string]*model.Progress)}
}

func progressKey(mentorshipID string, week int) string {
	return fmt.Sprintf("%s:%d", mentorshipID, week)
}

func (m *mockProgressRepo) Upsert(_ context.Context, progress *model.Progress) error {
	key := progressKey(progress.MentorshipID, progress.Week)
	if existing, ok := m.snapshots[key]; ok {
		existing.TasksCompleted = progress.TasksCompleted
		existing.TotalTasks = progress.TotalTasks
		existing.EngagementScore = progress.EngagementScore
		existing.SkillImprovement = progress.SkillImprovement
		existing.UpdatedAt = time.Now()
		// ON CONFLICT 更新路径同样回填主键（Postgres RETURNING 行为）
		progress.ProgressID = existing.ProgressID
		return nil
	}
	if progress.ProgressID == "" {
		progress.ProgressID = "ps-" + key
	}
	cp := *progress
	m.snapshots[key] = &cp
	return nil
}

func (m *mockProgressRepo) GetByMentorshipAndWeek(_ context.Context, mentorshipID string, week int) (*model.Progress, error) {
	if p, ok := m.snapshots[progressKey(mentorshipID, week)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) ListByMentorship(_ context.Context, mentorshipID string) ([]model.Progress, error) {
	var result []model.Progress
	for _, p := range m.snapshots {
		if p.MentorshipID == mentorshipID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Week < result[j].Week })
	return result, nil
}

// ── Mock EvaluationRepository ──

type mockEvaluationRepo struct {
	evaluations []*model.Evaluation
	seq         int
}

func newMockEvaluationRepo() *mockEvaluationRepo {
	return &mockEvaluationRepo{}
}

func (m *mockEvaluationRepo) Create(_ context.Context, evaluation *model.Evaluation) error {
	// (mentorship, type, evaluator) 唯一约束兜底
	for _, e := range m.evaluations {
		if e.MentorshipID == evaluation.MentorshipID && e.Type == evaluation.Type &&
			e.EvaluatorID == evaluation.EvaluatorID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if evaluation.EvaluationID == "" {
		evaluation.EvaluationID = fmt.Sprintf("eval-%d", m.seq)
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now()
	}
	cp := *evaluation
	m.evaluations = append(m.evaluations, &cp)
	return nil
}

func (m *mockEvaluationRepo) GetByID(_ context.Context, id string) (*model.Evaluation, error) {
	for _, e := range m.evaluations {
		if e.EvaluationID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEvaluationRepo) ListByMentorship(_ context.Context, mentorshipID string) ([]model.Evaluation, error) {
	var result []model.Evaluation
	for _, e := range m.evaluations {
		if e.MentorshipID == mentorshipID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEvaluationRepo) ListByMentorshipAndType(_ context.Context, mentorshipID, evalType string) ([]model.Evaluation, error) {
	var result []model.Evaluation
	for _, e := range m.evaluations {
		if e.MentorshipID == mentorshipID && e.Type == evalType {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEvaluationRepo) Exists(_ context.Context, mentorshipID, evalType, evaluatorID string) (bool, error) {
	for _, e := range m.evaluations {
		if e.MentorshipID == mentorshipID && e.Type == evalType && e.EvaluatorID == evaluatorID {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock CertificateRepository ──

type mockCertificateRepo struct {
	certs map[string]*model.Certificate // key = certificate_id
	seq   int

	mentorships *mockMentorshipRepo
}

func newMockCertificateRepo(mentorships *mockMentorshipRepo) *mockCertificateRepo {
	return &mockCertificateRepo{certs: make(map[string]*model.Certificate), mentorships: mentorships}
}

func (m *mockCertificateRepo) CreateLinking(_ context.Context, cert *model.Certificate) error {
	for _, e := range m.certs {
		if e.MentorshipID == cert.MentorshipID || e.CertificateNumber == cert.CertificateNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	if cert.CertificateID == "" {
		cert.CertificateID = fmt.Sprintf("cert-%d", m.seq)
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now()
	}
	cp := *cert
	m.certs[cert.CertificateID] = &cp

	// 回写辅导关系的 certificate_id
	if stored := m.mentorships.find(cert.MentorshipID); stored != nil {
		id := cert.CertificateID
		stored.CertificateID = &id
	}
	return nil
}

func (m *mockCertificateRepo) GetByID(_ context.Context, id string) (*model.Certificate, error) {
	if c, ok := m.certs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) GetByMentorshipID(_ context.Context, mentorshipID string) (*model.Certificate, error) {
	for _, c := range m.certs {
		if c.MentorshipID == mentorshipID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) GetByNumber(_ context.Context, number string) (*model.Certificate, error) {
	for _, c := range m.certs {
		if c.CertificateNumber == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	m.seq++
	if notification.NotificationID == "" {
		notification.NotificationID = fmt.Sprintf("notif-%d", m.seq)
	}
	cp := *notification
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, notifications []model.Notification) error {
	for i := range notifications {
		if err := m.Create(ctx, &notifications[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, error) {
	// 最新在前 = 逆插入序
	var all []model.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		all = append(all, *n)
	}
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, notificationID, userID string) error {
	for _, n := range m.notifications {
		if n.NotificationID == notificationID && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	config *model.SystemConfig
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{}
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	if m.config == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.config
	return &cp, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, config *model.SystemConfig) error {
	if m.config == nil {
		m.config = &model.SystemConfig{ConfigID: 1}
	}
	m.config.DefaultMinScore = config.DefaultMinScore
	m.config.DefaultProgramWeeks = config.DefaultProgramWeeks
	m.config.AutoApproveDefault = config.AutoApproveDefault
	m.config.NotificationsEnabled = config.NotificationsEnabled
	m.config.UpdatedAt = config.UpdatedAt
	m.config.UpdatedBy = config.UpdatedBy
	return nil
}

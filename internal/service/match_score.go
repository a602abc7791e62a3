package service

import (
	"math"
	"strings"

	"havia/backend/internal/model"
)

// ── 匹配计分 ────────────────────────────────────────────────
//
// 五个子分均为档案字段的确定性纯函数，无随机数、无时钟依赖，
// 相同输入必然产生相同输出（自动匹配幂等性的前提）。
//
// 分值上限：技能 35 + 行业 20 + 时间 20 + 风格 15 + 偏好 10 = 100。
// ─────────────────────────────────────────────────────────────

const (
	skillScoreMax         = 35
	skillFieldBonus       = 10
	industryScoreMax      = 20
	industryFieldPartial  = 12
	availabilityScoreMax  = 20
	availabilityFullMins  = 300 // 每周重叠达 5 小时即满分
	communicationScoreMax = 15
	communicationNeutral  = 8
	communicationMismatch = 4
	personalityScoreMax   = 10
	personalityNeutral    = 5
)

// pairScore 一个导师×学员配对的计分结果
type pairScore struct {
	Skill         int
	Industry      int
	Availability  int
	Communication int
	Personality   int
}

// Total 子分之和，上限 100
func (p pairScore) Total() int {
	total := p.Skill + p.Industry + p.Availability + p.Communication + p.Personality
	if total > 100 {
		total = 100
	}
	return total
}

// scorePair 计算一对导师×学员的全部子分。
// rules 控制软规则开关（M4 风格加权、M5 偏好中性默认）；
// 返回 ok=false 表示硬规则 M3（必须有时间重叠）未通过。
func scorePair(
	mentor *model.MentorProfile,
	mentee *model.MenteeProfile,
	mentorSlots, menteeSlots []model.AvailabilitySlot,
	rules map[string]bool,
) (pairScore, bool) {
	overlapMins := overlapMinutes(mentorSlots, menteeSlots)
	if rules["M3"] && overlapMins == 0 {
		return pairScore{}, false
	}

	return pairScore{
		Skill:         skillScore(mentor, mentee),
		Industry:      industryScore(mentor, mentee),
		Availability:  availabilityScore(overlapMins),
		Communication: communicationScore(mentor, mentee, rules["M4"]),
		Personality:   personalityScore(mentor, mentee, rules["M5"]),
	}, true
}

// skillScore 技能匹配 0-35：学员技能被导师主题覆盖的比例，
// 兴趣领域命中主题额外加分。
func skillScore(mentor *model.MentorProfile, mentee *model.MenteeProfile) int {
	score := 0
	if len(mentee.Skills) > 0 {
		covered := 0
		for _, skill := range mentee.Skills {
			if mentor.Themes.Contains(skill) {
				covered++
			}
		}
		score = int(math.Round(float64(skillScoreMax-skillFieldBonus) * float64(covered) / float64(len(mentee.Skills))))
	}
	if mentee.FieldOfInterest != "" && mentor.Themes.Contains(mentee.FieldOfInterest) {
		score += skillFieldBonus
	}
	if score > skillScoreMax {
		score = skillScoreMax
	}
	return score
}

// industryScore 行业相关性 0-20：学员目标提及导师行业/公司语境时满分，
// 兴趣领域与行业一致时给部分分。
func industryScore(mentor *model.MentorProfile, mentee *model.MenteeProfile) int {
	industry := strings.ToLower(strings.TrimSpace(mentor.Industry))
	company := strings.ToLower(strings.TrimSpace(mentor.Company))
	if industry == "" && company == "" {
		return 0
	}
	for _, goal := range mentee.Goals {
		g := strings.ToLower(goal)
		if industry != "" && strings.Contains(g, industry) {
			return industryScoreMax
		}
		if company != "" && strings.Contains(g, company) {
			return industryScoreMax
		}
	}
	if industry != "" && strings.EqualFold(mentee.FieldOfInterest, mentor.Industry) {
		return industryFieldPartial
	}
	return 0
}

// availabilityScore 时间匹配 0-20：每周重叠分钟数线性折算，300 分钟封顶
func availabilityScore(overlapMins int) int {
	if overlapMins >= availabilityFullMins {
		return availabilityScoreMax
	}
	return int(math.Round(float64(availabilityScoreMax) * float64(overlapMins) / float64(availabilityFullMins)))
}

// communicationScore 风格匹配 0-15：M4 关闭或任一方未填时取中性值
func communicationScore(mentor *model.MentorProfile, mentee *model.MenteeProfile, styleWeighting bool) int {
	if !styleWeighting {
		return communicationNeutral
	}
	ms := strings.TrimSpace(mentor.MentoringStyle)
	ps := strings.TrimSpace(mentee.PreferredStyle)
	if ms == "" || ps == "" {
		return communicationNeutral
	}
	if strings.EqualFold(ms, ps) {
		return communicationScoreMax
	}
	return communicationMismatch
}

// personalityScore 偏好契合 0-10：双方偏好标签的交并比；
// 无信号时按 M5 取中性中点或 0。
func personalityScore(mentor *model.MentorProfile, mentee *model.MenteeProfile, neutralDefault bool) int {
	if len(mentor.Preferences) == 0 || len(mentee.Preferences) == 0 {
		if neutralDefault {
			return personalityNeutral
		}
		return 0
	}

	union := make(map[string]bool)
	for _, p := range mentor.Preferences {
		union[strings.ToLower(p)] = true
	}
	shared := 0
	for _, p := range mentee.Preferences {
		k := strings.ToLower(p)
		if union[k] {
			shared++
		}
		union[k] = true
	}
	return int(math.Round(float64(personalityScoreMax) * float64(shared) / float64(len(union))))
}

// overlapMinutes 双方周内时段的总重叠分钟数
func overlapMinutes(a, b []model.AvailabilitySlot) int {
	total := 0
	for i := range a {
		sa, errA := timeToMinutes(a[i].StartTime)
		ea, errB := timeToMinutes(a[i].EndTime)
		if errA != nil || errB != nil {
			continue
		}
		for j := range b {
			if a[i].DayOfWeek != b[j].DayOfWeek {
				continue
			}
			sb, errC := timeToMinutes(b[j].StartTime)
			eb, errD := timeToMinutes(b[j].EndTime)
			if errC != nil || errD != nil {
				continue
			}
			start := maxInt(sa, sb)
			end := minInt(ea, eb)
			if end > start {
				total += end - start
			}
		}
	}
	return total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

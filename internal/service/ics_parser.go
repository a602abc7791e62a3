package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"havia/backend/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为周内空闲时段列表。
//
// 设计决策：
//   - 日历事件视为"忙时"，空闲时段由每日窗口减去忙时取反得到
//   - DTSTART/DTEND 确定星期几与时间；仅周重复（或单次）事件参与
//   - 同一天的忙时区间先合并再取反，避免重叠事件产生碎片
//   - 不足 30 分钟的空闲碎片丢弃，对匹配无意义
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize   = 5 * 1024 * 1024 // 5MB
	defaultWindow    = "08:00-22:00"
	minSlotMinutes   = 30
	shanghaiTimezone = "Asia/Shanghai"
)

// busyInterval 周内忙时区间（分钟表示，便于合并）
type busyInterval struct {
	start int // 自 00:00 起的分钟数
	end   int
}

// ParseICSToFreeSlots 解析 ICS 忙时内容并取反为空闲时段
//
// windowStart/windowEnd 为每日可辅导窗口（"HH:MM"），缺省 08:00-22:00。
func ParseICSToFreeSlots(content, userID, windowStart, windowEnd string) ([]model.AvailabilitySlot, error) {
	if len(content) > icsMaxFileSize {
		return nil, fmt.Errorf("ICS 内容超过大小限制")
	}
	if windowStart == "" {
		windowStart = strings.Split(defaultWindow, "-")[0]
	}
	if windowEnd == "" {
		windowEnd = strings.Split(defaultWindow, "-")[1]
	}
	winStart, err := timeToMinutes(windowStart)
	if err != nil {
		return nil, fmt.Errorf("窗口起始时间无效: %w", err)
	}
	winEnd, err := timeToMinutes(windowEnd)
	if err != nil {
		return nil, fmt.Errorf("窗口结束时间无效: %w", err)
	}
	if winEnd <= winStart {
		return nil, fmt.Errorf("窗口结束时间必须晚于起始时间")
	}

	cal, err := ics.ParseCalendar(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	loc, _ := time.LoadLocation(shanghaiTimezone)

	// 阶段 1: 解析 VEVENT → 按星期几聚合忙时
	busyByDay := make(map[int][]busyInterval) // 1=周一 … 7=周日
	for _, evt := range cal.Events() {
		day, interval, ok := parseBusyEvent(evt, loc)
		if !ok {
			continue
		}
		busyByDay[day] = append(busyByDay[day], interval)
	}

	// 阶段 2: 每天合并忙时后在窗口内取反
	slots := make([]model.AvailabilitySlot, 0)
	for day := 1; day <= 7; day++ {
		merged := mergeIntervals(busyByDay[day])
		for _, free := range invertIntervals(merged, winStart, winEnd) {
			if free.end-free.start < minSlotMinutes {
				continue
			}
			slots = append(slots, model.AvailabilitySlot{
				UserID:    userID,
				DayOfWeek: day,
				StartTime: minutesToTime(free.start),
				EndTime:   minutesToTime(free.end),
				Source:    "ics",
			})
		}
	}
	return slots, nil
}

// parseBusyEvent 从单个 VEVENT 提取周内忙时区间
// 非周重复的单次事件也计入：保守处理，宁可少报空闲。
func parseBusyEvent(evt *ics.VEvent, loc *time.Location) (int, busyInterval, bool) {
	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return 0, busyInterval{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 若无 DTEND，默认 1 小时
		dtEnd = dtStart.Add(time.Hour)
	}
	if !dtEnd.After(dtStart) {
		return 0, busyInterval{}, false
	}

	// 跨天事件按起始日截断到当天窗口末尾处理
	day := goWeekdayToISO(dtStart.Weekday())
	start := dtStart.Hour()*60 + dtStart.Minute()
	end := dtEnd.Hour()*60 + dtEnd.Minute()
	if !sameDate(dtStart, dtEnd) || end <= start {
		end = 24 * 60
	}
	return day, busyInterval{start: start, end: end}, true
}

// mergeIntervals 合并重叠/相邻的忙时区间
func mergeIntervals(intervals []busyInterval) []busyInterval {
	if len(intervals) == 0 {
		return nil
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].start != intervals[j].start {
			return intervals[i].start < intervals[j].start
		}
		return intervals[i].end < intervals[j].end
	})
	merged := []busyInterval{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if iv.start <= last.end {
			if iv.end > last.end {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// invertIntervals 在 [winStart, winEnd) 窗口内对忙时取反
func invertIntervals(busy []busyInterval, winStart, winEnd int) []busyInterval {
	var free []busyInterval
	cursor := winStart
	for _, iv := range busy {
		if iv.end <= winStart || iv.start >= winEnd {
			continue
		}
		if iv.start > cursor {
			free = append(free, busyInterval{start: cursor, end: minInt(iv.start, winEnd)})
		}
		if iv.end > cursor {
			cursor = iv.end
		}
		if cursor >= winEnd {
			return free
		}
	}
	if cursor < winEnd {
		free = append(free, busyInterval{start: cursor, end: winEnd})
	}
	return free
}

// ── 辅助函数 ──

// goWeekdayToISO 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func goWeekdayToISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// timeToMinutes 将 "HH:MM" 转为自 00:00 起的分钟数
func timeToMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// minutesToTime 将分钟数转回 "HH:MM"
func minutesToTime(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 尝试多种 ICS 日期格式
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

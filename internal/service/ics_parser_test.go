package service

import (
	"strings"
	"testing"
)

// 2026-08-31 是周一
const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//havia//mentorship//CN
BEGIN:VEVENT
UID:evt-1
DTSTART:20260831T100000
DTEND:20260831T120000
SUMMARY:例会
END:VEVENT
BEGIN:VEVENT
UID:evt-2
DTSTART:20260831T113000
DTEND:20260831T130000
SUMMARY:午餐会
END:VEVENT
END:VCALENDAR
`

// ════════════════════════════════════════════════════════════
// 解析与取反测试
// ════════════════════════════════════════════════════════════

func TestParseICSToFreeSlots(t *testing.T) {
	slots, err := ParseICSToFreeSlots(sampleICS, "user-1", "09:00", "18:00")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	// 周一忙时 10:00-13:00（两事件合并）→ 空闲 09:00-10:00 + 13:00-18:00；
	// 其余六天整窗空闲
	var monday []string
	for _, s := range slots {
		if s.Source != "ics" {
			t.Fatalf("期望来源 ics，实际 %s", s.Source)
		}
		if s.DayOfWeek == 1 {
			monday = append(monday, s.StartTime+"-"+s.EndTime)
		}
	}
	if len(slots) != 8 {
		t.Fatalf("期望 8 个空闲时段，实际 %d", len(slots))
	}
	want := []string{"09:00-10:00", "13:00-18:00"}
	if len(monday) != 2 || monday[0] != want[0] || monday[1] != want[1] {
		t.Errorf("期望周一空闲 %v，实际 %v", want, monday)
	}
}

func TestParseICSToFreeSlots_DropsShortFragments(t *testing.T) {
	// 忙时 09:00-17:45 只留下 15 分钟碎片，应被丢弃
	ics := strings.ReplaceAll(sampleICS, "T100000", "T090000")
	ics = strings.ReplaceAll(ics, "T120000", "T174500")
	ics = strings.ReplaceAll(ics, "T113000", "T090000")
	ics = strings.ReplaceAll(ics, "T130000", "T174500")

	slots, err := ParseICSToFreeSlots(ics, "user-1", "09:00", "18:00")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	for _, s := range slots {
		if s.DayOfWeek == 1 {
			t.Errorf("期望周一无空闲时段，实际 %s-%s", s.StartTime, s.EndTime)
		}
	}
}

func TestParseICSToFreeSlots_InvalidInput(t *testing.T) {
	if _, err := ParseICSToFreeSlots("not a calendar", "user-1", "", ""); err == nil {
		t.Error("期望非法内容报错")
	}
	if _, err := ParseICSToFreeSlots(sampleICS, "user-1", "18:00", "09:00"); err == nil {
		t.Error("期望窗口倒置报错")
	}
}

// ════════════════════════════════════════════════════════════
// 区间运算测试
// ════════════════════════════════════════════════════════════

func TestMergeIntervals(t *testing.T) {
	merged := mergeIntervals([]busyInterval{
		{start: 600, end: 660},
		{start: 630, end: 720},
		{start: 800, end: 860},
	})
	want := []busyInterval{{start: 600, end: 720}, {start: 800, end: 860}}
	if len(merged) != len(want) {
		t.Fatalf("期望 %d 个区间，实际 %d", len(want), len(merged))
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("区间 %d: 期望 %+v，实际 %+v", i, want[i], merged[i])
		}
	}
}

func TestInvertIntervals(t *testing.T) {
	// 窗口 09:00-18:00，忙时 10:00-12:00
	free := invertIntervals([]busyInterval{{start: 600, end: 720}}, 540, 1080)
	want := []busyInterval{{start: 540, end: 600}, {start: 720, end: 1080}}
	if len(free) != len(want) {
		t.Fatalf("期望 %d 个空闲区间，实际 %d", len(want), len(free))
	}
	for i := range want {
		if free[i] != want[i] {
			t.Errorf("区间 %d: 期望 %+v，实际 %+v", i, want[i], free[i])
		}
	}

	// 无忙时 → 整窗
	free = invertIntervals(nil, 540, 1080)
	if len(free) != 1 || free[0] != (busyInterval{start: 540, end: 1080}) {
		t.Errorf("期望整窗空闲，实际 %+v", free)
	}

	// 忙时盖满窗口 → 无空闲
	free = invertIntervals([]busyInterval{{start: 0, end: 1440}}, 540, 1080)
	if len(free) != 0 {
		t.Errorf("期望无空闲，实际 %+v", free)
	}
}

func TestTimeMinutesRoundTrip(t *testing.T) {
	mins, err := timeToMinutes("19:30")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if mins != 1170 {
		t.Errorf("期望 1170，实际 %d", mins)
	}
	if got := minutesToTime(1170); got != "19:30" {
		t.Errorf("期望 19:30，实际 %s", got)
	}
	if _, err := timeToMinutes("25:00"); err == nil {
		t.Error("期望非法时间报错")
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	analytics := NewAnalyticsService(testConfig(), repoAgg, nil, logger)
	svc := NewExportService(repoAgg, analytics, logger)
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// 周期报告导出测试
// ════════════════════════════════════════════════════════════

func TestExportService_ExportCycleReport(t *testing.T) {
	svc, repos := setupTestExportService()
	seedAnalyticsFixture(repos)

	buf, filename, err := svc.ExportCycleReport(context.Background(), "cyc-1")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "周期报告_2026 秋季期.xlsx" {
		t.Errorf("期望文件名含周期名，实际 %s", filename)
	}

	// 回读校验两个 Sheet 与明细行
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("回读 Excel 失败: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	found := map[string]bool{}
	for _, s := range sheets {
		found[s] = true
	}
	if !found["周期总览"] || !found["辅导关系"] {
		t.Fatalf("期望包含总览与明细 Sheet，实际 %v", sheets)
	}

	rows, err := f.GetRows("辅导关系")
	if err != nil {
		t.Fatalf("读取明细失败: %v", err)
	}
	// 表头 + 2 条辅导关系
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(rows))
	}
	if rows[1][0] != "张三" || rows[1][1] != "李四" {
		t.Errorf("期望首行 张三/李四，实际 %v", rows[1][:2])
	}
	if rows[1][2] != "88" {
		t.Errorf("期望匹配分 88，实际 %s", rows[1][2])
	}
}

func TestExportService_ExportCycleReport_NoMentorships(t *testing.T) {
	svc, repos := setupTestExportService()
	seedBasicData(repos)

	_, _, err := svc.ExportCycleReport(context.Background(), "cyc-1")
	if !errors.Is(err, ErrExportNoMentorships) {
		t.Fatalf("期望 ErrExportNoMentorships，实际 %v", err)
	}
}

func TestExportService_ExportCycleReport_CycleNotFound(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportCycleReport(context.Background(), "cyc-999")
	if !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("期望 ErrCycleNotFound，实际 %v", err)
	}
}

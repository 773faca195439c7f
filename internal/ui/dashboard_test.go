package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"userdesk/m/domain"
)

func TestSummarize(t *testing.T) {
	users := make([]domain.User, 7)
	growth := []domain.GrowthPoint{
		{Date: "2024-04-20", Count: 2},
		{Date: "2024-04-28", Count: 1},
		{Date: "2024-05-01", Count: 3},
		{Date: "2024-05-06", Count: 1},
	}
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	s := Summarize(users, growth, now)

	if s.Total != 7 {
		t.Errorf("total: expected 7, got %d", s.Total)
	}
	if s.Active != 5 {
		t.Errorf("active: expected floor(7*0.8)=5, got %d", s.Active)
	}
	// 2024-04-28 is 8.5 days before now; only the last two buckets count.
	if s.NewThisWeek != 2 {
		t.Errorf("new this week: expected 2 buckets, got %d", s.NewThisWeek)
	}
	if len(s.Recent) != 3 || s.Recent[0].Date != "2024-05-06" || s.Recent[2].Date != "2024-04-28" {
		t.Errorf("recent must be the last three buckets newest first, got %#v", s.Recent)
	}
}

func TestSummarize_WindowBoundary(t *testing.T) {
	growth := []domain.GrowthPoint{{Date: "2024-05-01", Count: 1}}
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	if s := Summarize(nil, growth, day.Add(7*24*time.Hour-time.Second)); s.NewThisWeek != 1 {
		t.Errorf("just inside the window: expected 1, got %d", s.NewThisWeek)
	}
	if s := Summarize(nil, growth, day.Add(7*24*time.Hour)); s.NewThisWeek != 0 {
		t.Errorf("exactly seven days: expected 0, got %d", s.NewThisWeek)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil, time.Now())
	if s.Total != 0 || s.Active != 0 || s.NewThisWeek != 0 || len(s.Recent) != 0 {
		t.Errorf("expected zero summary, got %#v", s)
	}
}

func TestRenderDashboard(t *testing.T) {
	s := Summarize(make([]domain.User, 2), []domain.GrowthPoint{
		{Date: "2024-05-01", Count: 2},
		{Date: "2024-05-02", Count: 1},
	}, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, s); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Users",
		"Active Users",
		"New This Week",
		"2024-05-01  " + strings.Repeat("#", barWidth) + " 2",
		"2024-05-02  " + strings.Repeat("#", barWidth/2) + " 1",
		"1 users added",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "1 users added") > strings.Index(out, "2 users added") {
		t.Errorf("recent activity must list the newest bucket first:\n%s", out)
	}
}

func TestRenderUsers(t *testing.T) {
	avatar := "/uploads/a.png"
	users := []domain.User{
		{ID: 1, Name: "Admin User", Email: "admin@example.com", CreatedAt: "2024-05-01 10:00:00"},
		{ID: 2, Name: "Jane Doe", Email: "jane@x.com", Avatar: &avatar},
	}

	var buf bytes.Buffer
	if err := RenderUsers(&buf, users, func(p string) string { return "http://h" + p }); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "admin@example.com") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
	if !strings.Contains(lines[2], "http://h/uploads/a.png") {
		t.Errorf("avatar URL not rendered: %q", lines[2])
	}
}

package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"userdesk/m/domain"
)

const (
	newUserWindow = 7 * 24 * time.Hour
	recentBuckets = 3
	barWidth      = 40
)

// Summary is everything the dashboard shows, derived from the user list and
// the growth series.
type Summary struct {
	Total       int
	Active      int
	NewThisWeek int
	Growth      []domain.GrowthPoint
	Recent      []domain.GrowthPoint
}

// Summarize derives the dashboard figures at instant now. Active is a flat
// 80% of the total. NewThisWeek counts growth buckets (dates, not users)
// whose midnight UTC lies less than seven days before now.
func Summarize(users []domain.User, growth []domain.GrowthPoint, now time.Time) Summary {
	s := Summary{
		Total:  len(users),
		Active: len(users) * 8 / 10,
		Growth: growth,
	}

	for _, p := range growth {
		day, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			continue
		}
		if now.Sub(day) < newUserWindow {
			s.NewThisWeek++
		}
	}

	start := len(growth) - recentBuckets
	if start < 0 {
		start = 0
	}
	for i := len(growth) - 1; i >= start; i-- {
		s.Recent = append(s.Recent, growth[i])
	}
	return s
}

// RenderDashboard writes the stat cards, a horizontal bar chart of growth
// and the recent activity list.
func RenderDashboard(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Users\t%d\n", s.Total)
	fmt.Fprintf(tw, "Active Users\t%d\n", s.Active)
	fmt.Fprintf(tw, "New This Week\t%d\n", s.NewThisWeek)
	fmt.Fprintf(tw, "System Status\tAll Systems Normal\n")
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "User Growth")
	var peak int64
	for _, p := range s.Growth {
		if p.Count > peak {
			peak = p.Count
		}
	}
	for _, p := range s.Growth {
		fmt.Fprintf(tw, "%s\t%s %d\n", p.Date, bar(p.Count, peak), p.Count)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Recent Users")
	for _, p := range s.Recent {
		fmt.Fprintf(tw, "%d users added\t%s\n", p.Count, p.Date)
	}
	return tw.Flush()
}

// RenderUsers writes the users table.
func RenderUsers(w io.Writer, users []domain.User, avatarURL func(string) string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tAVATAR\tCREATED")
	for _, u := range users {
		avatar := "-"
		if u.Avatar != nil {
			avatar = *u.Avatar
			if avatarURL != nil {
				avatar = avatarURL(avatar)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, avatar, u.CreatedAt)
	}
	return tw.Flush()
}

func bar(count, peak int64) string {
	if peak <= 0 || count <= 0 {
		return ""
	}
	n := int(count * barWidth / peak)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

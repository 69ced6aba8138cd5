package dashboard

import (
	"sort"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/resource"
	"github.com/MrEthical07/goSession/session"
)

// MaxDays caps every daily window.
const MaxDays = 366

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// window returns the days dates ending at today, oldest first.
func window(days int, today time.Time) []string {
	days = clampDays(days)
	y, m, d := today.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	out := make([]string, days)
	for i := 0; i < days; i++ {
		out[i] = end.AddDate(0, 0, i-days+1).Format(time.DateOnly)
	}
	return out
}

// fill projects sums onto the window, with zero for missing days.
func fill(sums map[string]float64, days int, today time.Time) []DailyTotal {
	dates := window(days, today)
	out := make([]DailyTotal, len(dates))
	for i, date := range dates {
		out[i] = DailyTotal{Date: date, Total: sums[date]}
	}
	return out
}

// DailyTotals sums purchase amounts per day over the days days ending at
// today. Every day in the window appears, oldest first. days is clamped to
// [1, MaxDays]. Purchases without a calendar date are skipped.
func DailyTotals(purchases []resource.Purchase, days int, today time.Time) []DailyTotal {
	sums := make(map[string]float64, len(purchases))
	for _, p := range purchases {
		if !p.HasDate() {
			continue
		}
		sums[p.Date] += p.Amount
	}
	return fill(sums, days, today)
}

// Normalize projects parsed report totals onto the same window DailyTotals
// produces, so both sources chart identically.
func Normalize(totals []DailyTotal, days int, today time.Time) []DailyTotal {
	sums := make(map[string]float64, len(totals))
	for _, t := range totals {
		sums[t.Date] += t.Total
	}
	return fill(sums, days, today)
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// Uncategorized labels purchases without a category.
const Uncategorized = "uncategorized"

// ByCategory groups purchases by category, largest total first.
func ByCategory(purchases []resource.Purchase) []CategoryTotal {
	idx := map[string]int{}
	var out []CategoryTotal
	for _, p := range purchases {
		cat := p.Category
		if cat == "" {
			cat = Uncategorized
		}
		i, ok := idx[cat]
		if !ok {
			i = len(out)
			idx[cat] = i
			out = append(out, CategoryTotal{Category: cat})
		}
		out[i].Total += p.Amount
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RoleCount is the number of accounts holding one role.
type RoleCount struct {
	Role  session.Role `json:"role"`
	Count int          `json:"count"`
}

// RoleCounts counts users per role. Admin and user always appear; other
// roles follow alphabetically.
func RoleCounts(users []identity.User) []RoleCount {
	counts := map[session.Role]int{
		session.RoleAdmin: 0,
		session.RoleUser:  0,
	}
	for _, u := range users {
		role := u.Role
		if role == session.RoleNone {
			role = session.RoleUser
		}
		counts[role]++
	}

	out := []RoleCount{
		{Role: session.RoleAdmin, Count: counts[session.RoleAdmin]},
		{Role: session.RoleUser, Count: counts[session.RoleUser]},
	}
	var extra []session.Role
	for r := range counts {
		if r != session.RoleAdmin && r != session.RoleUser {
			extra = append(extra, r)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, r := range extra {
		out = append(out, RoleCount{Role: r, Count: counts[r]})
	}
	return out
}

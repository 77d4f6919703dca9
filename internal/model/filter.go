package model

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Matches reports whether query is a case-insensitive substring of the
// title, description or owner. An empty query matches everything.
func (ip IP) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ip.Title), q) ||
		strings.Contains(strings.ToLower(ip.Description), q) ||
		strings.Contains(strings.ToLower(ip.Owner), q)
}

func FilterIPs(ips []IP, query string) []IP {
	if strings.TrimSpace(query) == "" {
		return ips
	}
	out := make([]IP, 0, len(ips))
	for _, ip := range ips {
		if ip.Matches(query) {
			out = append(out, ip)
		}
	}
	return out
}

type Stats struct {
	IPs    int
	Worlds int
	Items  int
}

func (s Stats) AverageItemsPerIP() int {
	if s.IPs <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Items) / float64(s.IPs)))
}

// Excerpt truncates s to n runes, appending "..." when it was cut.
func Excerpt(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

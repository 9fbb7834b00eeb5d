// Package format holds the pure display helpers shared by every renderer:
// relative timestamps, avatar initials and avatar colours.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/UkralStul/interactor/internal/domain"
)

// Palette is the fixed set of avatar colours.
var Palette = []string{
	"#667eea", "#764ba2", "#f093fb", "#4facfe",
	"#43e97b", "#fa709a", "#fee140", "#30cfd0",
}

// RelativeTime renders t relative to now: "Just now", "5m ago", "3h ago",
// "2d ago", and a calendar date for anything a week or older.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}

	t = t.In(now.Location())
	if t.Year() != now.Year() {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}

// Initials takes the first letter of each word of name, upper-cased, at most two.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	return b.String()
}

// AvatarColor picks a palette colour from the author's numeric id.
// The local user always gets the first colour.
func AvatarColor(a domain.Author) string {
	id, ok := a.ID()
	if !ok {
		return Palette[0]
	}
	i := id % int64(len(Palette))
	if i < 0 {
		i = -i
	}
	return Palette[i]
}

// Count renders n with the singular or plural noun: "1 like", "3 likes".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

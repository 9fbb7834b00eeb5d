package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UkralStul/interactor/internal/domain"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds", now.Add(-59 * time.Second), "Just now"},
		{"future", now.Add(time.Hour), "Just now"},
		{"one minute", now.Add(-time.Minute), "1m ago"},
		{"minutes", now.Add(-59*time.Minute - 59*time.Second), "59m ago"},
		{"hours", now.Add(-5 * time.Hour), "5h ago"},
		{"one day", now.Add(-24 * time.Hour), "1d ago"},
		{"six days", now.Add(-6*24*time.Hour - 23*time.Hour), "6d ago"},
		{"a week", now.Add(-7 * 24 * time.Hour), "Mar 13"},
		{"last year", time.Date(2024, time.December, 31, 9, 0, 0, 0, time.UTC), "Dec 31, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(tt.t, now))
		})
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "CU", Initials("Current User"))
	assert.Equal(t, "U1", Initials("User 121"))
	assert.Equal(t, "U9", Initials("User 9"))
	assert.Equal(t, "MJ", Initials("mary  jane watson"))
	assert.Equal(t, "S", Initials("System"))
	assert.Equal(t, "ÉL", Initials("élodie laurent"))
	assert.Equal(t, "", Initials("   "))
}

func TestAvatarColor(t *testing.T) {
	assert.Equal(t, Palette[0], AvatarColor(domain.LocalUser))
	assert.Equal(t, Palette[0], AvatarColor(domain.RemoteUser(8)))
	assert.Equal(t, Palette[1], AvatarColor(domain.RemoteUser(121)))
	assert.Equal(t, Palette[3], AvatarColor(domain.RemoteUser(-3)))
	assert.Equal(t, AvatarColor(domain.RemoteUser(42)), AvatarColor(domain.RemoteUser(42)))
}

func TestCount(t *testing.T) {
	assert.Equal(t, "0 likes", Count(0, "like", "likes"))
	assert.Equal(t, "1 like", Count(1, "like", "likes"))
	assert.Equal(t, "12 comments", Count(12, "comment", "comments"))
}

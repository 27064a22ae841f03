package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriod_Valid(t *testing.T) {
	assert.True(t, PeriodDaily.Valid())
	assert.True(t, PeriodWeekly.Valid())
	assert.True(t, PeriodAllTime.Valid())
	assert.False(t, Period("monthly").Valid())
	assert.False(t, Period("").Valid())
}

func TestPeriod_Start_Daily(t *testing.T) {
	now := time.Date(2025, 6, 18, 15, 42, 7, 0, time.UTC) // Wednesday
	start := PeriodDaily.Start(now)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), start)
}

func TestPeriod_Start_Weekly(t *testing.T) {
	// Wednesday resolves to the previous Sunday.
	now := time.Date(2025, 6, 18, 15, 42, 7, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), PeriodWeekly.Start(now))

	// A Sunday resolves to itself at midnight.
	sunday := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), PeriodWeekly.Start(sunday))
}

func TestPeriod_Start_AllTime(t *testing.T) {
	assert.True(t, PeriodAllTime.Start(time.Now()).IsZero())
}

func TestPeriod_Start_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 02:00 on the 19th in UTC+9 is still the 18th in UTC.
	now := time.Date(2025, 6, 19, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), PeriodDaily.Start(now))
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2, 3}, 45, 2, 20)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 3, p.TotalPages)

	empty := NewPage([]int(nil), 0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestSubmission_Eligible(t *testing.T) {
	now := time.Now()
	sub := Submission{
		ModerationState: ModerationApproved,
		TranscodeState:  TranscodeCompleted,
	}
	assert.True(t, sub.Eligible())

	rejected := sub
	rejected.ModerationState = ModerationRejected
	assert.False(t, rejected.Eligible())

	transcoding := sub
	transcoding.TranscodeState = TranscodeRunning
	assert.False(t, transcoding.Eligible())

	deleted := sub
	deleted.DeletedAt = &now
	assert.False(t, deleted.Eligible())
}

package timeutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beatmaplib/assetstore/internal/cli/timeutil"
)

func TestFormatUptimeDaysHoursMinutesSeconds(t *testing.T) {
	assert.Equal(t, "3d 0h 30m 15s", timeutil.FormatUptime("72h30m15s"))
}

func TestFormatUptimeHoursOnly(t *testing.T) {
	assert.Equal(t, "2h 5m 0s", timeutil.FormatUptime("2h5m"))
}

func TestFormatUptimeMinutesOnly(t *testing.T) {
	assert.Equal(t, "5m 30s", timeutil.FormatUptime("5m30s"))
}

func TestFormatUptimeSecondsOnly(t *testing.T) {
	assert.Equal(t, "42s", timeutil.FormatUptime("42s"))
}

func TestFormatUptimeInvalidInputReturnsOriginal(t *testing.T) {
	assert.Equal(t, "not-a-duration", timeutil.FormatUptime("not-a-duration"))
}

func TestFormatTimeValidRFC3339(t *testing.T) {
	got := timeutil.FormatTime("2024-03-05T10:00:00Z")
	assert.NotEqual(t, "2024-03-05T10:00:00Z", got)
	assert.NotEmpty(t, got)
}

func TestFormatTimeInvalidInputReturnsOriginal(t *testing.T) {
	assert.Equal(t, "not-a-timestamp", timeutil.FormatTime("not-a-timestamp"))
}

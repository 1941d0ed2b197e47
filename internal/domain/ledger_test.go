package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCooldown(t *testing.T) {
	cooldown := 14 * time.Hour
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	t.Run("never checked in", func(t *testing.T) {
		assert.NoError(t, CheckCooldown(nil, now, cooldown))
	})

	t.Run("exactly at the boundary is allowed", func(t *testing.T) {
		assert.NoError(t, CheckCooldown(at(14*time.Hour), now, cooldown))
	})

	t.Run("well past the boundary", func(t *testing.T) {
		assert.NoError(t, CheckCooldown(at(30*time.Hour), now, cooldown))
	})

	t.Run("too soon reports remaining hours", func(t *testing.T) {
		err := CheckCooldown(at(10*time.Hour+30*time.Minute), now, cooldown)

		var cd *CooldownError
		require.ErrorAs(t, err, &cd)
		assert.Equal(t, 3.5, cd.RemainingHours)
	})

	t.Run("remaining hours are rounded to two decimals", func(t *testing.T) {
		err := CheckCooldown(at(time.Hour+20*time.Minute), now, cooldown)

		var cd *CooldownError
		require.ErrorAs(t, err, &cd)
		// 12h40m = 12.666... hours
		assert.Equal(t, 12.67, cd.RemainingHours)
	})

	t.Run("one second short", func(t *testing.T) {
		err := CheckCooldown(at(14*time.Hour-time.Second), now, cooldown)

		var cd *CooldownError
		require.ErrorAs(t, err, &cd)
		assert.Equal(t, 0.0, cd.RemainingHours)
	})
}

func TestCalendarDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ts := time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-06-02", CalendarDay(ts, time.UTC))
	assert.Equal(t, "2024-06-01", CalendarDay(ts, ny))
}

func TestTransactionTypeSign(t *testing.T) {
	assert.Equal(t, int64(1), TransactionCredit.Sign())
	assert.Equal(t, int64(1), TransactionDeposit.Sign())
	assert.Equal(t, int64(-1), TransactionWithdrawal.Sign())
	assert.False(t, TransactionType("refund").Valid())
}

package usage

import "time"

// Tracker counts chat messages per user within a rolling period.
type Tracker struct {
	cache  Cache
	period time.Duration
}

// DefaultPeriod is the rolling window message counts accumulate over.
const DefaultPeriod = 30 * 24 * time.Hour

func NewTracker(cache Cache, period time.Duration) *Tracker {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Tracker{cache: cache, period: period}
}

// RecordMessage counts one sent message for the user.
func (t *Tracker) RecordMessage(userID string) {
	t.cache.Increment("chat_messages:"+userID, t.period)
}

// messageCount returns how many messages the user sent in the current
// period.
func (t *Tracker) messageCount(userID string) int64 {
	count, _ := t.cache.Get("chat_messages:" + userID)
	return count
}

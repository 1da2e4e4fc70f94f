package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/movelearn/tutor/pkg/api/dto"
)

// QuotaExceededMessage is returned once an identity used up its daily calls.
const QuotaExceededMessage = "您今日的AI助手使用次数已达上限，请明天再试"

// DailyQuota counts calls per identity. Counters reset at local midnight.
type DailyQuota struct {
	limit int
	now   func() time.Time

	mu     sync.Mutex
	day    string
	counts map[string]int
}

// NewDailyQuota allows limit calls per identity and day. A limit <= 0
// allows everything.
func NewDailyQuota(limit int) *DailyQuota {
	return &DailyQuota{
		limit:  limit,
		now:    time.Now,
		counts: make(map[string]int),
	}
}

// Allow records a call for id and reports whether it is within the quota.
// Rejected calls are not counted.
func (q *DailyQuota) Allow(id string) bool {
	_, ok := q.Take(id)
	return ok
}

// Take reserves one call for id. The returned refund gives the call back;
// it is a no-op once the day rolled over or when called twice.
func (q *DailyQuota) Take(id string) (refund func(), ok bool) {
	if q.limit <= 0 {
		return func() {}, true
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	day := q.now().Local().Format(time.DateOnly)
	if day != q.day {
		q.day = day
		clear(q.counts)
	}
	if q.counts[id] >= q.limit {
		return func() {}, false
	}
	q.counts[id]++

	var once sync.Once
	return func() {
		once.Do(func() { q.release(id, day) })
	}, true
}

func (q *DailyQuota) release(id, day string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.day != day || q.counts[id] == 0 {
		return
	}
	q.counts[id]--
}

// Remaining returns how many calls id has left today.
func (q *DailyQuota) Remaining(id string) int {
	if q.limit <= 0 {
		return -1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.now().Local().Format(time.DateOnly) != q.day {
		return q.limit
	}
	return max(q.limit-q.counts[id], 0)
}

// Quota rejects calls beyond the daily quota with 429. Only calls answered
// with 2xx are charged. It must run after Identity.
func Quota(q *DailyQuota, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		refund, ok := q.Take(c.GetString(IdentityKey))
		if !ok {
			m.quotaRejected()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Fail(http.StatusTooManyRequests, QuotaExceededMessage))
			return
		}
		c.Next()
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			refund()
		}
	}
}

package middleware

import (
	"testing"
	"time"
)

func TestDailyQuotaResetsAtMidnight(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.Local)
	q := NewDailyQuota(1)
	q.now = func() time.Time { return now }

	if !q.Allow("a") {
		t.Fatalf("first call should pass")
	}
	if q.Allow("a") {
		t.Fatalf("second call should be rejected")
	}
	if q.Remaining("a") != 0 {
		t.Fatalf("expected no calls left, got %d", q.Remaining("a"))
	}

	now = now.Add(2 * time.Minute)
	if q.Remaining("a") != 1 {
		t.Fatalf("expected full quota after midnight, got %d", q.Remaining("a"))
	}
	if !q.Allow("a") {
		t.Fatalf("quota should reset after midnight")
	}
}

func TestDailyQuotaDisabled(t *testing.T) {
	q := NewDailyQuota(-1)
	for range 100 {
		if !q.Allow("a") {
			t.Fatalf("disabled quota rejected a call")
		}
	}
	if q.Remaining("a") != -1 {
		t.Fatalf("disabled quota should report -1")
	}
}

func TestDailyQuotaRefund(t *testing.T) {
	q := NewDailyQuota(1)

	refund, ok := q.Take("a")
	if !ok {
		t.Fatalf("first call should pass")
	}
	refund()
	refund()
	if q.Remaining("a") != 1 {
		t.Fatalf("refund should give the call back once, got %d left", q.Remaining("a"))
	}

	if _, ok := q.Take("a"); !ok {
		t.Fatalf("refunded call should be available")
	}
	if _, ok := q.Take("a"); ok {
		t.Fatalf("quota should be used up")
	}
}

func TestDailyQuotaRefundAfterMidnight(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.Local)
	q := NewDailyQuota(1)
	q.now = func() time.Time { return now }

	refund, _ := q.Take("a")
	now = now.Add(2 * time.Minute)
	if !q.Allow("a") {
		t.Fatalf("new day should allow a call")
	}
	refund()
	if q.Remaining("a") != 0 {
		t.Fatalf("refund of yesterday's call must not credit today, got %d left", q.Remaining("a"))
	}
}

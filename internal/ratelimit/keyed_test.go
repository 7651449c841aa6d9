package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/huahelper/hua-messengerbot-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func TestKeyedLimiterPerSender(t *testing.T) {
	t.Parallel()
	cfg := KeyedConfig{
		Name:          "sender",
		Burst:         1,
		RefillRate:    10,
		CleanupPeriod: time.Hour,
	}
	kl := NewKeyedLimiter(cfg)
	defer kl.Stop()

	// Each sender gets an independent bucket.
	if !kl.Allow("1122334455") {
		t.Error("first message from a sender was denied")
	}
	if kl.Allow("1122334455") {
		t.Error("second message got through a burst of 1")
	}
	if !kl.Allow("9988776655") {
		t.Error("a different sender was throttled by the first one's bucket")
	}
}

func TestKeyedLimiterCleanup(t *testing.T) {
	t.Parallel()
	cfg := KeyedConfig{
		Name:          "sender_cleanup",
		Burst:         10,
		RefillRate:    100, // refills to full well inside the sleep below
		CleanupPeriod: 50 * time.Millisecond,
	}
	kl := NewKeyedLimiter(cfg)
	defer kl.Stop()

	kl.Allow("1122334455")
	if count := kl.GetActiveCount(); count != 1 {
		t.Errorf("GetActiveCount() = %d, want 1", count)
	}

	// Once the bucket refills to full the janitor drops the entry.
	time.Sleep(200 * time.Millisecond)

	if count := kl.GetActiveCount(); count != 0 {
		t.Errorf("GetActiveCount() = %d after cleanup, want 0", count)
	}
}

func TestKeyedLimiterCleanupKeepsDailyUsage(t *testing.T) {
	t.Parallel()
	// A sender with spent daily rating quota must survive the janitor,
	// or the 24h limit would reset on every cleanup tick.
	cfg := KeyedConfig{
		Name:          "rating_cleanup",
		Burst:         10,
		RefillRate:    100,
		CleanupPeriod: 50 * time.Millisecond,
		DailyLimit:    5,
	}
	kl := NewKeyedLimiter(cfg)
	defer kl.Stop()

	kl.Allow("1122334455")

	time.Sleep(200 * time.Millisecond)

	if count := kl.GetActiveCount(); count != 1 {
		t.Errorf("GetActiveCount() = %d, want 1 (daily usage must pin the entry)", count)
	}
}

func TestKeyedLimiterConcurrent(t *testing.T) {
	t.Parallel()
	cfg := KeyedConfig{
		Name:          "sender_concurrent",
		Burst:         1000,
		RefillRate:    1,
		CleanupPeriod: time.Hour,
	}
	kl := NewKeyedLimiter(cfg)
	defer kl.Stop()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			key := fmt.Sprintf("10000000%d", i%10) // 10 distinct senders
			kl.Allow(key)
			kl.GetAvailable(key)
		})
	}
	wg.Wait()
}

func TestKeyedLimiterGetAvailable(t *testing.T) {
	t.Parallel()
	cfg := KeyedConfig{
		Name:       "sender_avail",
		Burst:      10,
		RefillRate: 1,
	}
	kl := NewKeyedLimiter(cfg)
	defer kl.Stop()

	// An unseen sender reports a full bucket without allocating one.
	if v := kl.GetAvailable("5544332211"); v != 10 {
		t.Errorf("GetAvailable(new sender) = %f, want 10", v)
	}

	kl.Allow("1122334455")
	if v := kl.GetAvailable("1122334455"); v >= 10 {
		t.Errorf("GetAvailable(active sender) = %f, want < 10", v)
	}
}

func TestKeyedLimiterGetDailyRemaining(t *testing.T) {
	t.Parallel()
	cfg := KeyedConfig{
		Name:       "rating",
		Burst:      10,
		RefillRate: 1,
		DailyLimit: 5,
	}
	kl := NewKeyedLimiter(cfg)
	defer kl.Stop()

	if r := kl.GetDailyRemaining("1122334455"); r != 5 {
		t.Errorf("GetDailyRemaining(new sender) = %d, want 5", r)
	}

	kl.Allow("1122334455")
	if r := kl.GetDailyRemaining("1122334455"); r != 4 {
		t.Errorf("GetDailyRemaining after one rating = %d, want 4", r)
	}

	// No DailyLimit configured means unlimited, reported as -1.
	kl2 := NewKeyedLimiter(KeyedConfig{Name: "sender_nodaily", Burst: 10})
	defer kl2.Stop()
	if r := kl2.GetDailyRemaining("1122334455"); r != -1 {
		t.Errorf("GetDailyRemaining with no daily limit = %d, want -1", r)
	}
}

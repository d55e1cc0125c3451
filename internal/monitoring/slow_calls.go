package monitoring

import (
	"sync"
	"time"
)

// SlowCallThreshold 慢调用阈值
const SlowCallThreshold = 30 * time.Second

// SlowCallLog keeps the most recent generation calls that took longer than
// the threshold.
type SlowCallLog struct {
	mu        sync.RWMutex
	threshold time.Duration
	calls     []SlowCall
	maxSize   int
}

// SlowCall 慢调用记录
type SlowCall struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Details   string        `json:"details,omitempty"`
	Failed    bool          `json:"failed"`
}

// SlowCallStats 慢调用统计信息
type SlowCallStats struct {
	Count           int            `json:"count"`
	Threshold       time.Duration  `json:"threshold"`
	AvgDuration     time.Duration  `json:"avg_duration"`
	MaxDuration     time.Duration  `json:"max_duration"`
	OperationCounts map[string]int `json:"operation_counts"`
}

func NewSlowCallLog(threshold time.Duration, maxSize int) *SlowCallLog {
	if threshold <= 0 {
		threshold = SlowCallThreshold
	}
	if maxSize <= 0 {
		maxSize = 200
	}
	return &SlowCallLog{
		threshold: threshold,
		calls:     make([]SlowCall, 0, maxSize),
		maxSize:   maxSize,
	}
}

// Track runs fn and records it when it was slow.
func (l *SlowCallLog) Track(operation, details string, fn func() error) error {
	start := time.Now()
	err := fn()
	l.Observe(operation, details, start, time.Since(start), err != nil)
	return err
}

// Observe records an already timed call when it exceeded the threshold.
func (l *SlowCallLog) Observe(operation, details string, start time.Time, d time.Duration, failed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d < l.threshold {
		return
	}
	// 超过最大大小时移除最旧的记录
	if len(l.calls) >= l.maxSize {
		l.calls = l.calls[1:]
	}
	l.calls = append(l.calls, SlowCall{
		Timestamp: start,
		Operation: operation,
		Duration:  d,
		Details:   details,
		Failed:    failed,
	})
}

// Recent returns up to n records, oldest first.
func (l *SlowCallLog) Recent(n int) []SlowCall {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.calls) {
		n = len(l.calls)
	}
	out := make([]SlowCall, n)
	copy(out, l.calls[len(l.calls)-n:])
	return out
}

func (l *SlowCallLog) Stats() SlowCallStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := SlowCallStats{
		Count:           len(l.calls),
		Threshold:       l.threshold,
		OperationCounts: make(map[string]int),
	}
	if len(l.calls) == 0 {
		return stats
	}
	var total time.Duration
	for _, c := range l.calls {
		total += c.Duration
		if c.Duration > stats.MaxDuration {
			stats.MaxDuration = c.Duration
		}
		stats.OperationCounts[c.Operation]++
	}
	stats.AvgDuration = total / time.Duration(len(l.calls))
	return stats
}

var globalSlowCalls = NewSlowCallLog(SlowCallThreshold, 200)

// SlowCalls returns the process-wide slow call log.
func SlowCalls() *SlowCallLog {
	return globalSlowCalls
}

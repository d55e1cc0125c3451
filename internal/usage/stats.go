package usage

import (
	"time"

	"photo-architect/internal/events"
)

// Counters aggregates edit outcomes.
type Counters struct {
	Edits        int64 `json:"edits"`
	Success      int64 `json:"success"`
	NoImage      int64 `json:"no_image"`
	ServiceError int64 `json:"service_error"`
	Discarded    int64 `json:"discarded"`
	DurationMS   int64 `json:"duration_ms"`
}

func (c *Counters) record(outcome string, d time.Duration) {
	c.Edits++
	c.DurationMS += d.Milliseconds()
	switch outcome {
	case events.OutcomeSuccess:
		c.Success++
	case events.OutcomeNoImage:
		c.NoImage++
	case events.OutcomeServiceError:
		c.ServiceError++
	case events.OutcomeDiscarded:
		c.Discarded++
	}
}

func (c *Counters) add(o Counters) {
	c.Edits += o.Edits
	c.Success += o.Success
	c.NoImage += o.NoImage
	c.ServiceError += o.ServiceError
	c.Discarded += o.Discarded
	c.DurationMS += o.DurationMS
}

// fields lists the counters by their hash field name.
func (c Counters) fields() map[string]int64 {
	return map[string]int64{
		"edits":         c.Edits,
		"success":       c.Success,
		"no_image":      c.NoImage,
		"service_error": c.ServiceError,
		"discarded":     c.Discarded,
		"duration_ms":   c.DurationMS,
	}
}

func (c *Counters) set(field string, v int64) {
	switch field {
	case "edits":
		c.Edits = v
	case "success":
		c.Success = v
	case "no_image":
		c.NoImage = v
	case "service_error":
		c.ServiceError = v
	case "discarded":
		c.Discarded = v
	case "duration_ms":
		c.DurationMS = v
	}
}

// AvgDurationMS over edits that reached the API.
func (c Counters) AvgDurationMS() int64 {
	if c.Edits == 0 {
		return 0
	}
	return c.DurationMS / c.Edits
}

// Stats is the usage view served to admins.
type Stats struct {
	Totals Counters             `json:"totals"`
	Daily  map[string]*Counters `json:"daily"`  // key: "2006-01-02"
	Hourly map[int]*Counters    `json:"hourly"` // key: 0-23, aggregated across days
}

func NewStats() *Stats {
	return &Stats{Daily: make(map[string]*Counters), Hourly: make(map[int]*Counters)}
}

// Record is one finished edit.
type Record struct {
	At       time.Time
	Outcome  string
	Duration time.Duration
}

func (s *Stats) apply(r Record) {
	s.Totals.record(r.Outcome, r.Duration)
	day := r.At.Format("2006-01-02")
	if s.Daily[day] == nil {
		s.Daily[day] = &Counters{}
	}
	s.Daily[day].record(r.Outcome, r.Duration)
	h := r.At.Hour()
	if s.Hourly[h] == nil {
		s.Hourly[h] = &Counters{}
	}
	s.Hourly[h].record(r.Outcome, r.Duration)
}

// Merge adds o into s.
func (s *Stats) Merge(o *Stats) {
	if o == nil {
		return
	}
	s.Totals.add(o.Totals)
	for k, v := range o.Daily {
		if s.Daily[k] == nil {
			s.Daily[k] = &Counters{}
		}
		s.Daily[k].add(*v)
	}
	for k, v := range o.Hourly {
		if s.Hourly[k] == nil {
			s.Hourly[k] = &Counters{}
		}
		s.Hourly[k].add(*v)
	}
}

func (s *Stats) Clone() *Stats {
	out := NewStats()
	out.Merge(s)
	return out
}

func (s *Stats) empty() bool {
	return s.Totals.Edits == 0 && len(s.Daily) == 0 && len(s.Hourly) == 0
}

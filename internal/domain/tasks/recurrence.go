package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// MaxOccurrences caps a single expansion.
const MaxOccurrences = 366

const (
	RecurDaily   = "daily"
	RecurWeekly  = "weekly"
	RecurMonthly = "monthly"
)

var ErrInvalidPattern = errors.New("tasks: invalid recurring pattern")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ScheduleFor turns a recurring pattern into a cron schedule anchored on the
// task's start time. Named patterns keep the anchor's minute and hour;
// anything else must be a five-field cron expression or a descriptor.
func ScheduleFor(pattern string, anchor time.Time) (cron.Schedule, error) {
	var spec string
	switch p := strings.ToLower(strings.TrimSpace(pattern)); p {
	case "":
		return nil, ErrInvalidPattern
	case RecurDaily:
		spec = fmt.Sprintf("%d %d * * *", anchor.Minute(), anchor.Hour())
	case RecurWeekly:
		spec = fmt.Sprintf("%d %d * * %d", anchor.Minute(), anchor.Hour(), int(anchor.Weekday()))
	case RecurMonthly:
		// months shorter than the anchor day are skipped
		spec = fmt.Sprintf("%d %d %d * *", anchor.Minute(), anchor.Hour(), anchor.Day())
	default:
		spec = strings.TrimSpace(pattern)
	}

	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return sched, nil
}

// ValidatePattern checks a pattern without needing a concrete anchor.
func ValidatePattern(pattern string) error {
	_, err := ScheduleFor(pattern, time.Now())
	return err
}

// Occurrences lists start times strictly after anchor and not after until.
func Occurrences(pattern string, anchor, until time.Time, limit int) ([]time.Time, error) {
	sched, err := ScheduleFor(pattern, anchor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxOccurrences {
		limit = MaxOccurrences
	}

	var out []time.Time
	next := anchor
	for len(out) < limit {
		next = sched.Next(next)
		if next.IsZero() || next.After(until) {
			break
		}
		out = append(out, next)
	}
	return out, nil
}

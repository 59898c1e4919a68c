package scheduling

import (
	"time"

	"github.com/clinic/clinic/pkg/apperr"
)

// Bounds of timestamps the calendar accepts: years 1 through 9999.
var (
	minTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix() + 2*86400
	maxTimestamp = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC).Unix()
)

// Calendar turns unix timestamps into day buckets: the unix second of local
// midnight of the day a timestamp falls on.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc, now: time.Now}
}

func (c *Calendar) Location() *time.Location { return c.loc }

// DayBucket returns local midnight of the day containing ts. It is
// idempotent: DayBucket(DayBucket(ts)) == DayBucket(ts).
func (c *Calendar) DayBucket(ts int64) (int64, error) {
	if ts < minTimestamp || ts > maxTimestamp {
		return 0, apperr.InvalidTimestamp(ts)
	}
	t := time.Unix(ts, 0).In(c.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc).Unix(), nil
}

// Today is the day bucket of the current time.
func (c *Calendar) Today() int64 {
	b, _ := c.DayBucket(c.now().Unix())
	return b
}

// AddDays moves a day bucket by n calendar days. Days are not assumed to be
// 86400 seconds long, so buckets stay on local midnight across DST changes.
func (c *Calendar) AddDays(bucket int64, n int) int64 {
	t := time.Unix(bucket, 0).In(c.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, c.loc).Unix()
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// dateValue parses YYYY-MM-DD flags. Unset reads as today at
// resolution time.
type dateValue struct {
	t   time.Time
	set bool
}

var _ pflag.Value = (*dateValue)(nil)

func (d *dateValue) String() string {
	if !d.set {
		return ""
	}
	return d.t.Format("2006-01-02")
}

func (d *dateValue) Set(raw string) error {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	d.t = t
	d.set = true
	return nil
}

func (d *dateValue) Type() string { return "date" }

// Time returns the parsed date, or today (UTC midnight) when unset.
func (d *dateValue) Time() time.Time {
	if d.set {
		return d.t
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

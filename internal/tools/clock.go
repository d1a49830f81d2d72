package tools

import (
	"context"
	"fmt"
	"time"
)

// CurrentTime backs current_time. now is replaceable for tests.
type CurrentTime struct {
	now func() time.Time
}

func NewCurrentTime(now func() time.Time) *CurrentTime {
	if now == nil {
		now = time.Now
	}
	return &CurrentTime{now: now}
}

func (c *CurrentTime) Run(_ context.Context, params map[string]any) (string, error) {
	var args struct {
		Timezone string `mapstructure:"timezone"`
	}
	if err := decodeParams(params, &args); err != nil {
		return "", err
	}
	if args.Timezone == "" {
		args.Timezone = "UTC"
	}

	loc, err := time.LoadLocation(args.Timezone)
	if err != nil {
		return "", fmt.Errorf("unknown timezone %q", args.Timezone)
	}
	t := c.now().In(loc)
	return fmt.Sprintf("%s (%s, %s)", t.Format(time.RFC3339), t.Weekday(), args.Timezone), nil
}

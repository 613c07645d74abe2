package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Duration is a time.Duration that also accepts a leading day component,
// e.g. "7d" or "1d12h".
type Duration struct {
	time.Duration
}

// EnvDecode implements envconfig.DecoderCtx
func (d *Duration) EnvDecode(_ context.Context, v string) error {
	if v == "" {
		return nil
	}

	parsed, err := parseDuration(v)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	daysPart, rest, hasDays := strings.Cut(v, "d")
	if !hasDays {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return parsed, nil
	}

	days, err := strconv.Atoi(daysPart)
	if err != nil || days < 0 {
		return 0, fmt.Errorf("invalid days value in %q", v)
	}

	total := time.Duration(days) * day
	if rest == "" {
		return total, nil
	}

	extra, err := time.ParseDuration(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return total + extra, nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	return d.EnvDecode(context.Background(), string(text))
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	return d.Duration.String()
}

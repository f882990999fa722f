package device

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/isoft/internal/register"
)

// VerificationOptions configures the read-back after a setpoint change
type VerificationOptions struct {
	// MaxAttempts is the number of reads before giving up. Default: 4
	MaxAttempts int

	// InitialDelay gives the device time to apply the change before the
	// first read. Default: 500ms
	InitialDelay time.Duration

	// RetryDelay is the delay between reads, doubled after each mismatch up
	// to MaxRetryDelay. Defaults: 1s and 5s
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultVerificationOptions returns the read-back defaults
func DefaultVerificationOptions() VerificationOptions {
	return VerificationOptions{
		MaxAttempts:   4,
		InitialDelay:  500 * time.Millisecond,
		RetryDelay:    1 * time.Second,
		MaxRetryDelay: 5 * time.Second,
	}
}

// VerificationResult reports what the read-back saw
type VerificationResult struct {
	Success  bool
	Attempts int
	Actual   register.Hardness // last value read, if any read succeeded
	Err      error             // last read error or mismatch
}

// VerifyWaterHardness reads the hardness register until it reports want or
// the attempts run out. Each read is a single request; a failed read counts
// as an attempt.
func (c *Client) VerifyWaterHardness(ctx context.Context, want int, opts VerificationOptions) VerificationResult {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	result := VerificationResult{}
	delay := opts.RetryDelay

	wait := func(d time.Duration) bool {
		if d <= 0 {
			return ctx.Err() == nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		}
	}

	if !wait(opts.InitialDelay) {
		result.Err = ClassifyNetworkError(ctx.Err(), c.host)
		return result
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if !wait(delay) {
				result.Err = ClassifyNetworkError(ctx.Err(), c.host)
				return result
			}
			delay = min(delay*2, opts.MaxRetryDelay)
		}
		result.Attempts = attempt

		// Bypass the read cache: it would return the pre-write value
		payload, err := c.fetch(ctx, register.WaterHardnessRegister)
		if err != nil {
			result.Err = fmt.Errorf("attempt %d: %w", attempt, err)
			continue
		}
		got, err := register.DecodeHardness(payload)
		if err != nil {
			result.Err = fmt.Errorf("attempt %d: %w", attempt, err)
			continue
		}

		result.Actual = got
		if int(got) == want {
			result.Success = true
			result.Err = nil
			return result
		}
		result.Err = fmt.Errorf("attempt %d: hardness is %d °dH, expected %d °dH", attempt, got, want)
	}

	return result
}

// SetWaterHardnessVerified writes the setpoint and reads it back.
func (c *Client) SetWaterHardnessVerified(ctx context.Context, dH int, opts VerificationOptions) VerificationResult {
	if err := c.SetWaterHardness(ctx, dH); err != nil {
		return VerificationResult{Err: err}
	}
	return c.VerifyWaterHardness(ctx, dH, opts)
}

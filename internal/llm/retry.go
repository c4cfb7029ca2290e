package llm

import (
	"context"
	"math"
	"time"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// calculateBackoff returns the exponential backoff for an attempt, capped at
// maxBackoff.
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// generateWithRetry wraps a generation call with bounded exponential-backoff
// retry. The pipeline's channel redelivery still covers failures that
// exhaust these attempts; this only smooths over short-lived rate limits.
func (c *Client) generateWithRetry(ctx context.Context, genFunc func() (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := genFunc()
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		backoff := calculateBackoff(attempt)
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("backoff", backoff).
			Msg("Generation call failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", lastErr
}

package scheduler

import (
	"context"
	"time"
)

type expiredTokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type staleResetPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type bucketSweeper interface {
	Sweep(idle time.Duration) int
}

// ExpiredAccessTokens removes bearer tokens past their expiry.
func ExpiredAccessTokens(tokens expiredTokenPurger, every time.Duration) Job {
	return Job{
		Name:  "access_tokens",
		Every: every,
		Run: func(ctx context.Context) (int64, error) {
			return tokens.DeleteExpired(ctx, time.Now().UTC())
		},
	}
}

// StaleResetTokens removes password reset tokens older than ttl.
func StaleResetTokens(resets staleResetPurger, ttl, every time.Duration) Job {
	return Job{
		Name:  "password_resets",
		Every: every,
		Run: func(ctx context.Context) (int64, error) {
			return resets.DeleteOlderThan(ctx, time.Now().UTC().Add(-ttl))
		},
	}
}

// IdleRateLimitBuckets drops in-memory limiter state for quiet clients.
func IdleRateLimitBuckets(limiter bucketSweeper, idle, every time.Duration) Job {
	return Job{
		Name:  "rate_limit_buckets",
		Every: every,
		Run: func(context.Context) (int64, error) {
			return int64(limiter.Sweep(idle)), nil
		},
	}
}

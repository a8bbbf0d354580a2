package domain

import "time"

const (
	DefaultMaxDrift         = 5
	DefaultMaxDomains       = 10
	DefaultNewQuota         = 4
	DefaultActiveQuota      = 4
	DefaultOrphanQuota      = 2
	DefaultGracePeriod      = time.Hour
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
	DefaultMaxRetries       = 3
	DefaultBackoffBase      = 2.0
	DefaultBackoffUnit      = time.Second
	DefaultMaxBackoff       = 30 * time.Second
	DefaultCallTimeout      = 5 * time.Second
	DefaultLockStaleAfter   = time.Hour
)

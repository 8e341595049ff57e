package treasury

import "time"

// Wallet statuses
const (
	StatusActive = "active"
	StatusFrozen = "frozen"
)

// Default configuration values
const (
	DefaultCurrency = "USD"
)

// Cache keys and durations
const (
	CachePrefix   = "treasury"
	CacheDuration = 5 * time.Minute
)

// Pagination bounds for transaction history
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

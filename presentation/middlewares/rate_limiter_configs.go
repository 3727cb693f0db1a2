package middlewares

import "time"

// StrictRateLimiterConfig for sensitive endpoints
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 10,               // 10 requests
		Window:            time.Minute,      // per minute
		BlockDuration:     time.Minute * 15, // block for 15 minutes
	}
}

// ModerateRateLimiterConfig for normal API endpoints
func ModerateRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 60,              // 60 requests
		Window:            time.Minute,     // per minute
		BlockDuration:     time.Minute * 5, // block for 5 minutes
	}
}

// LenientRateLimiterConfig for read-heavy endpoints
func LenientRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 200,             // 200 requests
		Window:            time.Minute,     // per minute
		BlockDuration:     time.Minute * 2, // block for 2 minutes
	}
}

// WebhookRateLimiterConfig for inbound vendor webhooks; tolerant of
// delivery bursts but still bounded
func WebhookRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 300,             // 300 deliveries
		Window:            time.Minute,     // per minute
		BlockDuration:     time.Minute * 2, // block for 2 minutes
	}
}

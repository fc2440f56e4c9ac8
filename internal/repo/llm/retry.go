package llm

import "time"

// RetryConfig bounds the completion call retries. Attempts counts the first
// call too; the backoff doubles after every failed attempt.
type RetryConfig struct {
	Attempts        int
	InitialInterval time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:        3,
		InitialInterval: 500 * time.Millisecond,
	}
}

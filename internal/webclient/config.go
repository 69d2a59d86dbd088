package webclient

import "time"

type Config struct {
	// Timeout applies to each attempt.
	Timeout time.Duration

	// RetryMax is how many times a failed request is retried. Zero disables retries.
	RetryMax int

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// MaxBodyBytes truncates response bodies. Zero means 10 MiB.
	MaxBodyBytes int64
}

func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		RetryMax:     2,
		UserAgent:    "apiextract/0.1 (+https://github.com/raysh454/apiextract)",
		MaxBodyBytes: 10 << 20,
	}
}

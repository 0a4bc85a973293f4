package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings holds the tunable knobs of the workflow engine. Values come from
// the environment; every field has a working default.
type Settings struct {
	// MinimumJudgingHours is the judging window: no verdict may be delivered
	// until this many hours have passed since submission.
	MinimumJudgingHours int `env:"MINIMUM_JUDGING_HOURS" envDefault:"72"`

	// MovieSizeLimitBytes is the hard ceiling on a decompressed movie
	// payload. Larger uploads are rejected outright.
	MovieSizeLimitBytes int64 `env:"MOVIE_SIZE_LIMIT_BYTES" envDefault:"10485760"`

	// OutboxPollInterval is how often the outbox worker looks for pending tasks.
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"15s"`

	// OutboxMaxAttempts is how many times a task is dispatched before it is
	// marked failed and left for manual requeue.
	OutboxMaxAttempts int `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"3"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

package config

import "time"

type Scheduler struct {
	// Interval between full refresh passes over the tracked products.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1h"`
	// Workers bounds how many product refreshes run concurrently within a pass.
	Workers int `env:"SCHEDULER_WORKERS" envDefault:"5"`
}

package config

const (
	defaultPidFile        = "var/run/hopm.pid"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultPollIntervalMS = 1000

	minPollIntervalMS = 10
	maxPollIntervalMS = 60000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Options: Options{
			PidFile: defaultPidFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Daemon: Daemon{
			PollIntervalMS: defaultPollIntervalMS,
		},
	}
}

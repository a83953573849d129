package cfg

import (
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
)

type Config struct {
	HTTPListenAddr        string   `toml:"http_server_listen_addr"`
	HTTPSListenAddr       string   `toml:"https_server_listen_addr"`
	HTTPSCertFile         string   `toml:"https_ssl_cert_file"`
	HTTPSKeyFile          string   `toml:"https_ssl_key_file"`
	GithubWebhookEndpoint string   `toml:"github_webhook_endpoint"`
	GithubWebHookSecret   string   `toml:"github_webhook_secret"`
	GithubAPIToken        string   `toml:"github_api_token"`
	SlackEventsEndpoint   string   `toml:"slack_events_endpoint"`
	SlackSigningSecret    string   `toml:"slack_signing_secret"`
	DBPath                string   `toml:"db_path"`
	LogFormat             string   `toml:"log_format"`
	LogTimeKey            string   `toml:"log_time_key"`
	LogLevel              string   `toml:"log_level"`
	Reminder              Reminder `toml:"reminder"`
}

type Reminder struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
	MinAge   string `toml:"min_pull_request_age"`
}

const (
	DefReminderInterval = time.Hour
	DefReminderMinAge   = 4 * time.Hour
)

func Load(reader io.Reader) (*Config, error) {
	result := Config{
		GithubWebhookEndpoint: "/listener/github",
		SlackEventsEndpoint:   "/listener/slack",
		DBPath:                "threadrelay.db",
		LogFormat:             "logfmt",
		LogLevel:              "info",
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(r)
}

// ReminderInterval returns the parsed reminder run interval or the default
// when the config value is empty.
func (r *Config) ReminderInterval() (time.Duration, error) {
	return parseDuration(r.Reminder.Interval, DefReminderInterval)
}

// ReminderMinAge returns the minimum age a pull request must have to be
// included in a reminder digest.
func (r *Config) ReminderMinAge() (time.Duration, error) {
	return parseDuration(r.Reminder.MinAge, DefReminderMinAge)
}

func parseDuration(val string, def time.Duration) (time.Duration, error) {
	if val == "" {
		return def, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", val, err)
	}

	return d, nil
}

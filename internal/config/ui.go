package config

import "time"

type UIConfig struct {
	PageSize               int `toml:"page_size"`
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
	MarkReadDelayMillis    int `toml:"mark_read_delay_ms"`
	CountTimeoutSeconds    int `toml:"count_timeout_seconds"`
	SearchDebounceMillis   int `toml:"search_debounce_ms"`
}

func (u UIConfig) WithDefaults() UIConfig {
	if u.PageSize <= 0 {
		u.PageSize = 30
	}
	if u.RefreshIntervalSeconds == 0 {
		u.RefreshIntervalSeconds = 300
	}
	if u.MarkReadDelayMillis <= 0 {
		u.MarkReadDelayMillis = 3000
	}
	if u.CountTimeoutSeconds <= 0 {
		u.CountTimeoutSeconds = 10
	}
	if u.SearchDebounceMillis <= 0 {
		u.SearchDebounceMillis = 300
	}
	return u
}

func (u UIConfig) MarkReadDelay() time.Duration {
	return time.Duration(u.MarkReadDelayMillis) * time.Millisecond
}

func (u UIConfig) CountTimeout() time.Duration {
	return time.Duration(u.CountTimeoutSeconds) * time.Second
}

func (u UIConfig) SearchDebounce() time.Duration {
	return time.Duration(u.SearchDebounceMillis) * time.Millisecond
}

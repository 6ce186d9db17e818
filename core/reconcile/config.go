package reconcile

import "time"

// Config holds tuning for library syncs.
type Config struct {
	// ProgressStart is reported once a batch begins.
	ProgressStart float64 `mapstructure:"progress_start" default:"0.75"`
	// ProgressEnd is reached by the last per-record update.
	ProgressEnd float64 `mapstructure:"progress_end" default:"0.95"`
	// ProgressFinal is reported after commit.
	ProgressFinal float64 `mapstructure:"progress_final" default:"1.0"`
	// ReportInterval is the maximum number of records between progress reports.
	ReportInterval int `mapstructure:"report_interval" default:"500"`
	// CacheTTLSeconds is how long a known-entity index is reused. 0 disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
}

// Band returns the configured progress band.
func (c Config) Band() ProgressBand {
	return ProgressBand{Start: c.ProgressStart, End: c.ProgressEnd, Final: c.ProgressFinal}.normalized()
}

// CacheTTL returns the index cache lifetime.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Options converts the configuration to Reconciler options.
// A zero-valued Config keeps the defaults.
func (c Config) Options() []Option {
	var opts []Option
	if c != (Config{}) {
		opts = append(opts, WithProgressBand(c.Band()))
	}
	if c.ReportInterval > 0 {
		opts = append(opts, WithReportInterval(c.ReportInterval))
	}
	return opts
}

package settings

// DB config keys and defaults for platform settings.
const (
	// SiteNameKey is the DB config key for the platform display name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback platform display name.
	DefaultSiteName = "Scan2Win"
	// CooldownHoursKey overrides the play cooldown window in hours.
	CooldownHoursKey = "PLAY_COOLDOWN_HOURS"
	// EventRetentionDaysKey controls how long play events are kept.
	EventRetentionDaysKey = "PLAY_EVENT_RETENTION_DAYS"
	// MaintainIntervalSecondsKey controls the maintenance sweep interval in seconds.
	MaintainIntervalSecondsKey = "MAINTAIN_INTERVAL_SECONDS"
	// DefaultEventRetentionDays is the fallback play event retention.
	DefaultEventRetentionDays = 365
	// DefaultMaintainIntervalSeconds is the fallback sweep interval (seconds).
	DefaultMaintainIntervalSeconds = 300
)

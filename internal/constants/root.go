package constants

import "time"

const (
	AppName            = "logbook"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/logbook/logbook.db"
	DefaultConfigFile  = "~/.config/logbook/config.json"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Day is the width of a date bucket.
	Day = 24 * time.Hour

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "logbook-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "logbook-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.logbook"
	TrayAppExecutable      = "logbook-tray"

	// Reflection scores are bounded integers.
	MinScore = 0
	MaxScore = 10
)

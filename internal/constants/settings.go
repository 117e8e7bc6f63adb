package constants

const (
	// Setting keys
	SettingStore      = "store"
	SettingDebug      = "debug"
	SettingTimezone   = "timezone"
	SettingMovePolicy = "move_policy"
	SettingNotify     = "notify"

	// Environment variables
	EnvStore        = "LOGBOOK_STORE"
	EnvDebug        = "LOGBOOK_DEBUG"
	EnvTimezone     = "LOGBOOK_TIMEZONE"
	EnvMovePolicy   = "LOGBOOK_MOVE_POLICY"
	EnvNotify       = "LOGBOOK_NOTIFY"
	EnvDBConnection = "LOGBOOK_DB_CONNECTION"

	// Store selectors
	StoreMemory  = "memory"
	StoreKeyring = "keyring"

	// Default Settings Values
	DefaultTimezone   = "Local" // Use system local timezone by default
	DefaultMovePolicy = "keep-source"
	DefaultLogDays    = 7
)

package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so it only matters for
// fields without one.
const EnvPrefix = "OLIST"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	// MonthLayout is the calendar-month bucket format used by exclusion lists.
	MonthLayout = "2006-01"
)

const (
	EnvAppEnv                    = "OLIST_APP_ENV"
	EnvPort                      = "OLIST_APP_PORT"
	EnvLogLevel                  = "OLIST_LOG_LEVEL"
	EnvDataDir                   = "OLIST_DATA_DIR"
	EnvDataMinLatitude           = "OLIST_DATA_MIN_LATITUDE"
	EnvExcludedMonths            = "OLIST_EXCLUDED_MONTHS"
	EnvExcludedTransactionMonths = "OLIST_EXCLUDED_TRANSACTION_MONTHS"
	EnvExcludedTransactionDays   = "OLIST_EXCLUDED_TRANSACTION_DAYS"
	EnvStrictJoins               = "OLIST_STRICT_JOINS"
	EnvRJMinLongitude            = "OLIST_RJ_MIN_LONGITUDE"
	EnvFixMonetaryTier2          = "OLIST_RFM_FIX_MONETARY_TIER2"
	EnvCacheMaxEntries           = "OLIST_CACHE_MAX_ENTRIES"
	EnvRedisURL                  = "OLIST_REDIS_URL"
	EnvBoundariesBaseURL         = "OLIST_BOUNDARIES_BASE_URL"
)

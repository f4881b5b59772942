package config

const (
	EnvPrefix = "LOCKERLEND"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	BankModeSandbox = "sandbox"
	BankModeHTTP    = "http"

	defaultSQLiteDSN = "file:lockerlend.db?_foreign_keys=on"
)

const (
	EnvAppEnv      = "LOCKERLEND_APP_ENV"
	EnvPort        = "LOCKERLEND_APP_PORT"
	EnvDBDSN       = "LOCKERLEND_DB_DSN"
	EnvDBHost      = "LOCKERLEND_DB_HOST"
	EnvDBUser      = "LOCKERLEND_DB_USER"
	EnvDBName      = "LOCKERLEND_DB_NAME"
	EnvRedisURL    = "LOCKERLEND_REDIS_URL"
	EnvRedisAddr   = "LOCKERLEND_REDIS_ADDR"
	EnvJWTSecret   = "LOCKERLEND_JWT_SECRET"
	EnvJWTIssuer   = "LOCKERLEND_JWT_ISSUER"
	EnvUseSQLite   = "LOCKERLEND_USE_SQLITE"
	EnvBankMode    = "LOCKERLEND_BANK_MODE"
	EnvBankBaseURL = "LOCKERLEND_BANK_BASE_URL"
)

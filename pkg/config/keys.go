package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "LISENS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "LISENS_APP_ENV"
	EnvPort     = "LISENS_APP_PORT"
	EnvLogLevel = "LISENS_LOG_LEVEL"

	EnvDBDSN      = "LISENS_DB_DSN"
	EnvDBHost     = "LISENS_DB_HOST"
	EnvDBUser     = "LISENS_DB_USER"
	EnvDBName     = "LISENS_DB_NAME"
	EnvDBPassword = "LISENS_DB_PASSWORD"

	EnvRedisURL = "LISENS_REDIS_URL"

	EnvNexiSecretKey = "LISENS_NEXI_SECRET_KEY"
	EnvNexiBaseURL   = "LISENS_NEXI_BASE_URL"
	EnvAppBaseURL    = "LISENS_APP_BASE_URL"

	EnvSendgridAPIKey = "LISENS_SENDGRID_API_KEY"
	EnvSendgridFrom   = "LISENS_SENDGRID_FROM_EMAIL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

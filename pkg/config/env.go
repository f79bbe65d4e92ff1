package config

// EnvPrefix is the envconfig prefix; every field also carries its full name as a tag.
const EnvPrefix = "ORDERLEDGER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "ORDERLEDGER_APP_ENV"
	EnvPort                   = "ORDERLEDGER_APP_PORT"
	EnvLogLevel               = "ORDERLEDGER_LOG_LEVEL"
	EnvDBDSN                  = "ORDERLEDGER_DB_DSN"
	EnvDBHost                 = "ORDERLEDGER_DB_HOST"
	EnvDBUser                 = "ORDERLEDGER_DB_USER"
	EnvDBPassword             = "ORDERLEDGER_DB_PASSWORD"
	EnvDBName                 = "ORDERLEDGER_DB_NAME"
	EnvRedisURL               = "ORDERLEDGER_REDIS_URL"
	EnvJWTSecret              = "ORDERLEDGER_JWT_SECRET"
	EnvJWTIssuer              = "ORDERLEDGER_JWT_ISSUER"
	EnvJWTExpMins             = "ORDERLEDGER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ORDERLEDGER_REFRESH_TOKEN_TTL_MINUTES"
	EnvAutoMigrate            = "ORDERLEDGER_AUTO_MIGRATE"
	EnvCORSAllowedOrigins     = "ORDERLEDGER_CORS_ALLOWED_ORIGINS"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

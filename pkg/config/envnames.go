package config

// EnvPrefix is empty because every variable carries the full BOOSTGRID_
// prefix in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names shared between Load, tests, and error messages.
const (
	EnvAppEnv                 = "BOOSTGRID_APP_ENV"
	EnvPort                   = "BOOSTGRID_APP_PORT"
	EnvDBDSN                  = "BOOSTGRID_DB_DSN"
	EnvDBHost                 = "BOOSTGRID_DB_HOST"
	EnvDBUser                 = "BOOSTGRID_DB_USER"
	EnvDBName                 = "BOOSTGRID_DB_NAME"
	EnvRedisURL               = "BOOSTGRID_REDIS_URL"
	EnvJWTSecret              = "BOOSTGRID_JWT_SECRET"
	EnvJWTIssuer              = "BOOSTGRID_JWT_ISSUER"
	EnvJWTExpMins             = "BOOSTGRID_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BOOSTGRID_REFRESH_TOKEN_TTL_MINUTES"
	EnvSecsersAPIURL          = "BOOSTGRID_SECSERS_API_URL"
	EnvSecsersAPIKey          = "BOOSTGRID_SECSERS_API_KEY"
	EnvSecsersTimeout         = "BOOSTGRID_SECSERS_TIMEOUT"
	EnvGCPProjectID           = "BOOSTGRID_GCP_PROJECT_ID"
	EnvPubSubNotificationSub  = "BOOSTGRID_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

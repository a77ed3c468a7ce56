package config

// EnvPrefix scopes every environment variable read by Load.
const EnvPrefix = "bazarika"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv   = "BAZARIKA_APP_ENV"
	EnvPort     = "BAZARIKA_APP_PORT"
	EnvDBDSN    = "BAZARIKA_DB_DSN"
	EnvDBHost   = "BAZARIKA_DB_HOST"
	EnvDBUser   = "BAZARIKA_DB_USER"
	EnvDBName   = "BAZARIKA_DB_NAME"
	EnvRedisURL = "BAZARIKA_REDIS_URL"

	EnvJWTSecret  = "BAZARIKA_JWT_SECRET"
	EnvJWTIssuer  = "BAZARIKA_JWT_ISSUER"
	EnvJWTExpMins = "BAZARIKA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID      = "BAZARIKA_GCP_PROJECT_ID"
	EnvPubSubEventsTopic = "BAZARIKA_PUBSUB_EVENTS_TOPIC"

	EnvCommissionRate = "BAZARIKA_MARKET_COMMISSION_RATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

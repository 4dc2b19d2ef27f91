package config

const (
	EnvPrefix = "merchantpulse"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "MERCHANTPULSE_APP_ENV"
	EnvPort   = "MERCHANTPULSE_APP_PORT"

	EnvSourcesBaseURL      = "MERCHANTPULSE_SOURCES_BASE_URL"
	EnvSourcesFetchTimeout = "MERCHANTPULSE_SOURCES_FETCH_TIMEOUT"

	EnvRedisURL      = "MERCHANTPULSE_REDIS_URL"
	EnvGCPProjectID  = "MERCHANTPULSE_GCP_PROJECT_ID"
	EnvPubSubLiveSub = "MERCHANTPULSE_PUBSUB_LIVE_SUBSCRIPTION"
)

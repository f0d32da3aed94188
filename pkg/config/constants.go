package config

const (
	EnvPrefix = "HOOKRELAY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	QueueDriverPubSub = "pubsub"
	QueueDriverSQS    = "sqs"
)

const (
	EnvAppEnv   = "HOOKRELAY_APP_ENV"
	EnvPort     = "HOOKRELAY_APP_PORT"
	EnvLogLevel = "HOOKRELAY_LOG_LEVEL"

	EnvDBDSN  = "HOOKRELAY_DB_DSN"
	EnvDBHost = "HOOKRELAY_DB_HOST"
	EnvDBUser = "HOOKRELAY_DB_USER"
	EnvDBName = "HOOKRELAY_DB_NAME"

	EnvRedisURL = "HOOKRELAY_REDIS_URL"

	EnvJWTSecret = "HOOKRELAY_JWT_SECRET"
	EnvJWTIssuer = "HOOKRELAY_JWT_ISSUER"

	EnvGCPProjectID = "HOOKRELAY_GCP_PROJECT_ID"
	EnvQueueDriver  = "HOOKRELAY_QUEUE_DRIVER"
	EnvSQSQueueURL  = "HOOKRELAY_SQS_QUEUE_URL"
	EnvAWSRegion    = "HOOKRELAY_AWS_REGION"

	EnvConsumerMaxMessages = "HOOKRELAY_CONSUMER_MAX_MESSAGES"
	EnvPublicAPIURL        = "HOOKRELAY_PUBLIC_API_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

const (
	EnvPrefix = "STILLHOUSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STILLHOUSE_DB_DSN"
	EnvDBHost = "STILLHOUSE_DB_HOST"
	EnvDBUser = "STILLHOUSE_DB_USER"
	EnvDBName = "STILLHOUSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

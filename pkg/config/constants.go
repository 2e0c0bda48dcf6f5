package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "chai"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CHAI_DB_DSN"
	EnvDBHost = "CHAI_DB_HOST"
	EnvDBUser = "CHAI_DB_USER"
	EnvDBName = "CHAI_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

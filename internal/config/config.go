package config

import "time"

type Config interface {
	EnvConfig
	AuthConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type AuthConfig interface {
	GetJWTSecretID() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetPasswordCheckFunction() string
}

type StoreConfig interface {
	GetTableName() string
	GetAWSRegion() string
	GetAWSEndpoint() string
}

type mainConfig struct {
	EnvVars
	Auth
	Store
}

func New() Config {
	return mainConfig{}
}

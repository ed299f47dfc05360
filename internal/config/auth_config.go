package config

import (
	"strconv"
	"time"
)

const (
	jwtSecretIDVar       = "JWT_SECRET_ID"
	accessTTLVar         = "ACCESS_TTL_SEC"
	refreshTTLVar        = "REFRESH_TTL_SEC"
	passwordCheckFnVar   = "PASSWORD_CHECK_FUNCTION"
	defaultAccessTTLSec  = 900    // 15 minutes
	defaultRefreshTTLSec = 604800 // 7 days
)

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetJWTSecretID() string {
	return GetEnv(jwtSecretIDVar, "auth/jwt-signing-secret")
}

func (Auth) GetAccessTokenTTL() time.Duration {
	return secondsFromEnv(accessTTLVar, defaultAccessTTLSec)
}

func (Auth) GetRefreshTokenTTL() time.Duration {
	return secondsFromEnv(refreshTTLVar, defaultRefreshTTLSec)
}

func (Auth) GetPasswordCheckFunction() string {
	return GetEnv(passwordCheckFnVar, "")
}

func secondsFromEnv(name string, defaultSeconds int) time.Duration {
	seconds, err := strconv.Atoi(GetEnv(name, strconv.Itoa(defaultSeconds)))
	if err != nil || seconds <= 0 {
		seconds = defaultSeconds
	}
	return time.Duration(seconds) * time.Second
}

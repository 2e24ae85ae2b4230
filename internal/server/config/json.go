package config

import (
	"encoding/json"
	"os"

	"github.com/ThanhLuuv/user-management-backend/internal/flagx"
	"github.com/ThanhLuuv/user-management-backend/internal/timex"
)

// JsonConfig is the on-disk shape of the -c/-config file. Durations accept
// both "15m" strings and integer nanoseconds. Zero values leave the current
// setting untouched.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	TokenIssuer                 string         `json:"token_issuer"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	PasswordAlgorithm           string         `json:"password_algorithm"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	HashConcurrency             int            `json:"hash_concurrency"`
	MinPasswordLength           int            `json:"min_password_length"`
	DenylistBackend             string         `json:"denylist_backend"`
	DenylistSweepInterval       timex.Duration `json:"denylist_sweep_interval"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RedisDB                     int            `json:"redis_db"`
	LogLevel                    string         `json:"log_level"`
	LogFormat                   string         `json:"log_format"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	AvatarUploadExpiry          timex.Duration `json:"avatar_upload_expiry"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable file or invalid JSON panics: the operator asked for that
// file explicitly.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	setString(&config.DenylistBackend, c.DenylistBackend)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.HashConcurrency, c.HashConcurrency)
	setInt(&config.MinPasswordLength, c.MinPasswordLength)
	setInt(&config.RedisDB, c.RedisDB)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.DenylistSweepInterval.Duration != 0 {
		config.DenylistSweepInterval = c.DenylistSweepInterval.Duration
	}
	if c.AvatarUploadExpiry.Duration != 0 {
		config.AvatarUploadExpiry = c.AvatarUploadExpiry.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

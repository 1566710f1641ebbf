package config

import "os"

// StorageConfig describes the S3-compatible bucket used by the s3 archive backend.
type StorageConfig struct {
	Type         string `mapstructure:"type"` // r2, s3, s3compatible; empty auto-detects
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	AccessKeyEnv string `mapstructure:"access_key_env"` // env var holding the access key
	SecretKey    string `mapstructure:"secret_key"`
	SecretKeyEnv string `mapstructure:"secret_key_env"` // env var holding the secret key
	UseSSL       bool   `mapstructure:"use_ssl"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	PublicURL    string `mapstructure:"public_url"`
}

// ResolveEnvVars loads credentials from the referenced environment variables.
// Direct values take precedence if already set.
func (c *StorageConfig) ResolveEnvVars() {
	if c.AccessKeyEnv != "" && c.AccessKey == "" {
		if val := os.Getenv(c.AccessKeyEnv); val != "" {
			c.AccessKey = val
		}
	}
	if c.SecretKeyEnv != "" && c.SecretKey == "" {
		if val := os.Getenv(c.SecretKeyEnv); val != "" {
			c.SecretKey = val
		}
	}
}

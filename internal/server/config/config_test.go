package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.Port, 9999)
	assert.Equal(t, c.CredentialsFile, "./credentials.txt")
	assert.Equal(t, c.DatabaseDSN, "")
	assert.Equal(t, c.DBFile, "./db.json")
	assert.Equal(t, c.DataDir, "./data")
	assert.Equal(t, c.SecretKey, "secretKey")
	assert.Equal(t, c.TokenTTL, 30*time.Second)
	assert.Equal(t, c.MaxFileSize, 512<<10)
	assert.Equal(t, c.S3RootUser, "admin")
	assert.Equal(t, c.S3RootPassword, "secretpassword")
	assert.Equal(t, c.S3Bucket, "")
	assert.Equal(t, c.S3Region, "us-east-1")
	assert.Equal(t, c.S3BaseEndpoint, "http://127.0.0.1:9000/")
}

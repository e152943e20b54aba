package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9000
database:
  host: db
  user: app
  password: secret
  dbname: events
aws:
  region: eu-central-1
  s3_bucket: photos
  presign_ttl: 10m
jwt:
  secret: from-file
uploads:
  strict_quota: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 10, cfg.Server.JoinAttemptsPerMinute)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10*time.Minute, cfg.AWS.PresignTTL)
	assert.Equal(t, 7, cfg.Events.DefaultMaxGuests)
	assert.Equal(t, 5, cfg.Events.DefaultMaxCameraRollUploads)
	assert.Equal(t, "event_notifications", cfg.RabbitMQ.Queue)
	assert.True(t, cfg.Uploads.StrictQuota)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("UPLOADS_STRICT_QUOTA", "false")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.False(t, cfg.Uploads.StrictQuota)
	assert.Equal(t, "events", cfg.Database.DBName, "untouched by env")
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("AWS_S3_BUCKET", "b")
	t.Setenv("AWS_REGION", "us-east-1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "b", cfg.AWS.S3Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [broken"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "aws:\n  region: x\n  s3_bucket: y\n"))
	assert.ErrorContains(t, err, "jwt.secret is required")
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", DBName: "d", SSLMode: "require"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=require", c.DSN())
}

func TestObjectURL(t *testing.T) {
	c := AWSConfig{Region: "eu-west-1", S3Bucket: "pics"}
	assert.Equal(t, "https://pics.s3.eu-west-1.amazonaws.com/a/b.jpg", c.ObjectURL("a/b.jpg"))

	c.PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/a/b.jpg", c.ObjectURL("a/b.jpg"))
}

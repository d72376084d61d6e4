package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 8080
database:
  host: localhost
  user: rentflow
  database: rentflow
storage:
  local_dir: /tmp/rentflow
renderer:
  base_url: http://renderer.local
sendgrid:
  from_email: noreply@rentflow.test
  sandbox_mode: true
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "http://localhost:8080/files", cfg.Storage.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Transaction.MaxWait)
	assert.Equal(t, 15*time.Second, cfg.Transaction.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Outbox.BaseBackoff)
	assert.Equal(t, 20, cfg.Outbox.BatchSize)
	assert.Equal(t, 24*time.Hour, cfg.Booking.ExpireAfter)
	assert.Equal(t, "0 */15 * * * *", cfg.Scheduler.ExpireBookings)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "postgres://rentflow:@localhost:5432/rentflow?sslmode=disable", cfg.GetDatabaseConnectionString())
	assert.Equal(t, ":8080", cfg.GetServerAddress())
}

func TestParse_Durations(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
outbox:
  base_backoff: 10s
  max_backoff: 5m
booking:
  expire_after: 2h
`))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Outbox.BaseBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Outbox.MaxBackoff)
	assert.Equal(t, 2*time.Hour, cfg.Booking.ExpireAfter)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_TOKEN_SECRET", "s3cret")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "s3cret", cfg.Auth.TokenSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad port", "server:\n  port: 0\n", "invalid server port"},
		{"missing database", "server:\n  port: 80\n", "database host is required"},
		{
			name: "production without token secret",
			yaml: "server: {port: 80, environment: production}\ndatabase: {host: h, user: u, database: d}\nstorage: {local_dir: /tmp}\n",
			want: "auth token_secret is required",
		},
		{
			name: "unknown storage",
			yaml: "server: {port: 80}\ndatabase: {host: h, user: u, database: d}\nstorage: {type: s3}\n",
			want: "unsupported storage type",
		},
		{
			name: "firebase without project",
			yaml: "server: {port: 80}\ndatabase: {host: h, user: u, database: d}\nstorage: {type: firebase}\n",
			want: "firebase project_id or credentials_file is required",
		},
		{
			name: "sendgrid key outside sandbox",
			yaml: "server: {port: 80}\ndatabase: {host: h, user: u, database: d}\nstorage: {local_dir: /tmp}\nrenderer: {base_url: http://r}\nsendgrid: {from_email: a@b.c}\n",
			want: "sendgrid api_key is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSecurityFor(t *testing.T) {
	assert.Equal(t, SecurityPublic, SecurityFor("GET", "/healthz"))
	assert.Equal(t, SecurityIdentified, SecurityFor("POST", "/api/v1/tenants/{tenantID}/bookings"))
	assert.Equal(t, SecurityIdentified, SecurityFor("PUT", "/api/v1/tenants/{tenantID}/payments/{id}"))
}

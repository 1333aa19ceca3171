package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/vitals/server/internal/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

const credentialsYAML = `
users:
  - username: admin
    password_hash: "$2a$04$8Y3k0o3YJ0ZzOe8b5rZpEe0m4x4r8gq3p6ZQm1Q9tq0e7d9a0mB7a"
    role: Admin
  - username: staff
    password_hash: "$2a$04$8Y3k0o3YJ0ZzOe8b5rZpEe0m4x4r8gq3p6ZQm1Q9tq0e7d9a0mB7a"
    role: Staff
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "./data/vital_signs.db", cfg.DBPath)
	assert.Equal(t, 480, cfg.SessionIdleMinutes)
	assert.False(t, cfg.SeedDemo)
	assert.Nil(t, cfg.PatientMap())
	assert.Empty(t, cfg.Users)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VITALS_HTTP_ADDR", ":18080")
	t.Setenv("VITALS_GRPC_ADDR", "")
	t.Setenv("VITALS_ENV", "PROD")
	t.Setenv("VITALS_SESSION_SECRET", strings.Repeat("s", 32))
	t.Setenv("VITALS_SESSION_IDLE_MINUTES", "0")
	t.Setenv("VITALS_SEED_DEMO", "true")
	t.Setenv("VITALS_CREDENTIALS_FILE", writeFile(t, "creds.yaml", credentialsYAML))

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":18080", cfg.HTTPAddr)
	assert.Equal(t, "", cfg.GRPCAddr)
	assert.Equal(t, "prod", cfg.Env)
	assert.Zero(t, cfg.SessionIdleTTL())
	assert.False(t, cfg.SeedDemo, "demo seeding is dev only")
	require.Len(t, cfg.Users, 2)
	assert.Equal(t, "admin", cfg.Users[0].Username)
	assert.Equal(t, "Staff", cfg.Users[1].Role)
}

func TestLoad_UnknownEnvFallsBackToDev(t *testing.T) {
	t.Setenv("VITALS_ENV", "staging")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
}

func TestLoad_ProdRequiresSecretAndCredentials(t *testing.T) {
	t.Setenv("VITALS_ENV", "prod")
	_, err := config.Load("")
	assert.Error(t, err)

	t.Setenv("VITALS_CREDENTIALS_FILE", writeFile(t, "creds.yaml", credentialsYAML))
	t.Setenv("VITALS_SESSION_SECRET", "short")
	_, err = config.Load("")
	assert.Error(t, err)
}

func TestLoad_ConfigFilePatients(t *testing.T) {
	path := writeFile(t, "vitals.yaml", `
http_addr: ":7000"
patients:
  - id: 201
    name: Ward A Bed 1
  - id: 202
    name: Ward A Bed 2
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, map[int]string{201: "Ward A Bed 1", 202: "Ward A Bed 2"}, cfg.PatientMap())
}

func TestLoad_RejectsDuplicatePatients(t *testing.T) {
	path := writeFile(t, "vitals.yaml", `
patients:
  - id: 201
    name: A
  - id: 201
    name: B
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFiles(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	t.Setenv("VITALS_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err = config.Load("")
	assert.Error(t, err)
}

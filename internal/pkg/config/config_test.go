package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("planttour-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "planttour-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, 60*time.Second, cfg.Tour.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Tour.UpdateInterval)
	assert.Equal(t, 30*time.Minute, cfg.Tour.SessionTTL)
	assert.Equal(t, 10.0, cfg.Tour.MaxRadiusM)
	assert.Equal(t, 10, cfg.Tour.Limit)
	assert.Equal(t, 10, cfg.Tour.HeightColumn)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PLANTTOUR_TOUR_CATALOG_PATH", "/data/plants.csv")
	t.Setenv("PLANTTOUR_TOUR_MAX_RADIUS_M", "25")
	t.Setenv("PLANTTOUR_TOUR_UPDATE_INTERVAL", "3s")
	t.Setenv("PLANTTOUR_SERVER_PORT", "9090")

	cfg, err := Load("planttour-test")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25.0, cfg.Tour.MaxRadiusM)
	assert.Equal(t, 3*time.Second, cfg.Tour.UpdateInterval)
	assert.Equal(t, "/data/plants.csv", cfg.Tour.CatalogSource())
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Log:    LogConfig{Level: "info", Format: "json"},
		Tour: TourConfig{
			CatalogURL:   "https://example.org/plants.csv",
			FetchTimeout: time.Second,
			MaxRadiusM:   10,
			Limit:        10,
			HeightColumn: 10,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Tour.CatalogURL = ""
	cfg.Tour.MaxRadiusM = -1
	cfg.Database.Enabled = true
	cfg.Database.Host = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "tour.catalog_url")
	assert.Contains(t, err.Error(), "tour.max_radius_m")
	assert.Contains(t, err.Error(), "database.host")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, DBName: "plants", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/plants?sslmode=disable", d.DSN())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const minimalConfig = `
mongo:
  uri: mongodb://localhost:27017
auth:
  jwt_secret: test-secret
refresh:
  categories:
    - name: Python
      query: python developer
    - name: Data
      query: data analyst
`

func TestLoad_Defaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yml", minimalConfig)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.App.Port)
	assert.Equal(t, defaultSchedule, cfg.Refresh.Schedule)
	assert.Equal(t, defaultResultsWanted, cfg.Refresh.ResultsWanted)
	assert.Equal(t, defaultHoursOld, cfg.Refresh.HoursOld)
	assert.Equal(t, []string{"remotive", "remoteok"}, cfg.Refresh.Sites)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, "students", cfg.Mongo.StudentsCollection)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())

	require.Len(t, cfg.Refresh.Categories, 2)
	assert.Equal(t, "Python", cfg.Refresh.Categories[0].Name)
	assert.Equal(t, "Data", cfg.Refresh.Categories[1].Name)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yml", minimalConfig)
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SENDER_EMAIL", "noreply@example.com")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "noreply@example.com", cfg.SMTP.From)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate_CollectsErrors(t *testing.T) {
	var cfg Config
	cfg.App.Port = 70000
	cfg.Refresh.Schedule = "not a schedule"
	cfg.Refresh.Sites = []string{"remotive", "monster"}
	cfg.Refresh.Categories = []Category{
		{Name: "Python", Query: "python"},
		{Name: "python", Query: ""},
	}

	err := Validate(cfg)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "app.port")
	assert.Contains(t, msg, "auth.jwt_secret")
	assert.Contains(t, msg, "mongo.uri")
	assert.Contains(t, msg, "refresh.schedule")
	assert.Contains(t, msg, `"monster" is not a known site`)
	assert.Contains(t, msg, "refresh.categories[1].query is required")
	assert.Contains(t, msg, "is duplicated")
	assert.Contains(t, msg, "refresh.results_wanted")
}

func TestValidate_SiteRequirements(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yml", minimalConfig)
	cfg, err := Load(p)
	require.NoError(t, err)

	cfg.Refresh.Sites = []string{"lever", "email", "smartrecruiters"}
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.lever.companies")
	assert.Contains(t, err.Error(), "sources.smartrecruiters.companies")
	assert.Contains(t, err.Error(), "sources.email.imap_host")
}

func TestEnsureUserConfig_CopiesOnce(t *testing.T) {
	src := writeFile(t, t.TempDir(), "default.yml", minimalConfig)
	dataDir := filepath.Join(t.TempDir(), "data")

	p, err := EnsureUserConfig(dataDir, src)
	require.NoError(t, err)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, minimalConfig, string(b))

	require.NoError(t, os.WriteFile(p, []byte("app: {port: 9000}\n"), 0o644))
	p2, err := EnsureUserConfig(dataDir, src)
	require.NoError(t, err)
	assert.Equal(t, p, p2)
	b, err = os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "app: {port: 9000}\n", string(b))
}

func TestEnsureUserConfig_RejectsBrokenDefault(t *testing.T) {
	src := writeFile(t, t.TempDir(), "default.yml", "app: [unclosed\n")
	dataDir := t.TempDir()

	_, err := EnsureUserConfig(dataDir, src)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dataDir, UserConfigName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOverlayCompanies(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "companies.yml", `
lever:
  - slug: acme
    name: Acme
greenhouse: []
smartrecruiters:
  - slug: visa
`)
	var cfg Config
	cfg.Sources.Greenhouse.Companies = []Company{{Slug: "keep", Name: "Keep"}}

	require.NoError(t, OverlayCompanies(&cfg, p))
	assert.Equal(t, []Company{{Slug: "acme", Name: "Acme"}}, cfg.Sources.Lever.Companies)
	assert.Equal(t, "keep", cfg.Sources.Greenhouse.Companies[0].Slug)
	assert.Equal(t, []Company{{Slug: "visa"}}, cfg.Sources.SmartRecruiters.Companies)

	assert.NoError(t, OverlayCompanies(&cfg, filepath.Join(dir, "missing.yml")))
}

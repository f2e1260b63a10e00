package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contacerta/contacerta/internal/models"
)

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		p, err := LoadProfile(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Profile{}, p)
	})

	t.Run("parses fields", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store: memory\npostgres_url: postgres://db\nauto_migrate: true\nemail: ana@example.com\n"), 0o600))

		p, err := LoadProfile(path)
		require.NoError(t, err)
		assert.Equal(t, "memory", p.Store)
		assert.Equal(t, "postgres://db", p.PostgresURL)
		assert.True(t, p.AutoMigrate)
		assert.Equal(t, "ana@example.com", p.Email)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store: [unterminated\n"), 0o600))

		_, err := LoadProfile(path)
		require.Error(t, err)
	})
}

func TestMergeKeepsFlags(t *testing.T) {
	g := &Globals{Store: "postgres", Email: "flag@example.com"}
	g.merge(Profile{Store: "memory", Email: "profile@example.com", JWTSecret: "s3cret", Telemetry: true})

	assert.Equal(t, "postgres", g.Store)
	assert.Equal(t, "flag@example.com", g.Email)
	assert.Equal(t, "s3cret", g.JWTSecret)
	assert.True(t, g.Telemetry)
}

func TestFindOrg(t *testing.T) {
	a := models.OrgAccess{OrgID: uuid.New(), Name: "Igreja Central"}
	b := models.OrgAccess{OrgID: uuid.New(), Name: "Missão Norte"}
	c := models.OrgAccess{OrgID: uuid.New(), Name: "missão norte"}
	orgs := []models.OrgAccess{a, b, c}

	got, err := findOrg(orgs, a.OrgID.String())
	require.NoError(t, err)
	assert.Equal(t, a.OrgID, got.OrgID)

	got, err = findOrg(orgs, "igreja central")
	require.NoError(t, err)
	assert.Equal(t, a.OrgID, got.OrgID)

	_, err = findOrg(orgs, "Missão Norte")
	require.ErrorContains(t, err, "use the id")

	_, err = findOrg(orgs, "Outra")
	require.ErrorContains(t, err, "not a member")
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2025-03-10", "10/03/2025", " 2025-03-10 "} {
		got, err := parseDate("date", in)
		require.NoError(t, err, in)
		require.NotNil(t, got)
		assert.True(t, want.Equal(*got), in)
	}

	got, err := parseDate("date", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDate("date", "March 10")
	require.Error(t, err)
}

func TestAddressFlags(t *testing.T) {
	assert.Nil(t, AddressFlags{}.Model())

	a := AddressFlags{City: " Recife ", State: "pe", Zip: "50.030-230"}.Model()
	require.NotNil(t, a)
	assert.Equal(t, "Recife", a.City)
	assert.Equal(t, "PE", a.State)
	assert.Equal(t, "50030230", a.ZipCode)
}

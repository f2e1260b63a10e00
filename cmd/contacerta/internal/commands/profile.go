package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile holds defaults for the global flags, read from a YAML file:
//
//	store: postgres
//	postgres_url: postgres://contacerta@localhost:5432/contacerta
//	jwt_secret: ...
//	prefs_dir: ~/.contacerta/prefs
type Profile struct {
	Store       string `yaml:"store"`
	PostgresURL string `yaml:"postgres_url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTAudience string `yaml:"jwt_audience"`
	Identity    string `yaml:"identity"`
	Email       string `yaml:"email"`
	PrefsDir    string `yaml:"prefs_dir"`
	Telemetry   bool   `yaml:"telemetry"`
}

// LoadProfile reads the profile at path. A missing file is an empty profile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

// applyProfile fills flags that were not set from the profile.
func (g *Globals) applyProfile() error {
	p, err := LoadProfile(g.Profile)
	if err != nil {
		return err
	}
	g.merge(p)
	return nil
}

func (g *Globals) merge(p Profile) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&g.Store, p.Store)
	fill(&g.PostgresURL, p.PostgresURL)
	fill(&g.JWTSecret, p.JWTSecret)
	fill(&g.JWTAudience, p.JWTAudience)
	fill(&g.Identity, p.Identity)
	fill(&g.Email, p.Email)
	fill(&g.PrefsDir, expandHome(p.PrefsDir))
	g.AutoMigrate = g.AutoMigrate || p.AutoMigrate
	g.Telemetry = g.Telemetry || p.Telemetry
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

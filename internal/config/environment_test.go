package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

func loadedConfig(t *testing.T, doc string) *Loaded {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected config to load")
	}
	return loaded
}

func TestResolveEnvironmentProfileSelection(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{
		"defaultProfile": "a",
		"profiles": {"a": {}, "b": {}}
	}`)

	env, err := ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.ProfileName != "a" {
		t.Fatalf("expected default profile a, got %q", env.ProfileName)
	}

	env, err = ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded, Profile: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.ProfileName != "b" {
		t.Fatalf("expected requested profile b, got %q", env.ProfileName)
	}

	_, err = ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded, Profile: "z"})
	if errdef.CodeOf(err) != errdef.CodeUnknownProfile {
		t.Fatalf("expected unknown profile error, got %v", err)
	}
}

func TestResolveEnvironmentPicksFirstProfileDeterministically(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{"profiles": {"zeta": {}, "alpha": {}, "mid": {}}}`)

	for i := 0; i < 5; i++ {
		env, err := ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if env.ProfileName != "alpha" {
			t.Fatalf("expected lexicographically first profile, got %q", env.ProfileName)
		}
	}
}

func TestResolveEnvironmentFailsWithoutProfiles(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{"variables": {"A": "1"}}`)

	_, err := ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded})
	if errdef.CodeOf(err) != errdef.CodeNoProfiles {
		t.Fatalf("expected no profiles error, got %v", err)
	}
}

func TestResolveEnvironmentVariablePrecedence(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{
		"variables": {"A": "root-variables", "B": "root-variables", "C": "root-variables", "D": "root-variables"},
		"vars":      {"B": "root-vars", "C": "root-vars", "D": "root-vars"},
		"profiles": {
			"dev": {
				"variables": {"C": "profile-variables", "D": "profile-variables"},
				"vars":      {"D": "profile-vars"}
			}
		}
	}`)

	env, err := ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"A": "root-variables",
		"B": "root-vars",
		"C": "profile-variables",
		"D": "profile-vars",
	}
	for key, expected := range want {
		if env.TemplateVariables[key] != expected {
			t.Fatalf("variable %s: expected %q, got %q", key, expected, env.TemplateVariables[key])
		}
		if env.InitialEnv[key] != expected {
			t.Fatalf("initial env %s: expected %q, got %q", key, expected, env.InitialEnv[key])
		}
	}
}

func TestResolveEnvironmentEnvFileOverridesVariables(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{
		"profiles": {"dev": {"env": "dev.env", "variables": {"TOKEN": "from-config", "BASE": "https://api.example.com"}}}
	}`)
	envPath := filepath.Join(loaded.Dir, "dev.env")
	if err := os.WriteFile(envPath, []byte("TOKEN=from-env-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := ResolveEnvironment(ResolveOptions{BaseDir: loaded.Dir, ConfigDir: loaded.Dir, Config: loaded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.InitialEnv["TOKEN"] != "from-env-file" {
		t.Fatalf("env file should override config variables, got %q", env.InitialEnv["TOKEN"])
	}
	if env.TemplateVariables["TOKEN"] != "from-config" {
		t.Fatalf("template variables should keep the config value, got %q", env.TemplateVariables["TOKEN"])
	}
	if len(env.EnvFiles) != 1 || env.EnvFiles[0] != envPath {
		t.Fatalf("expected env file path recorded, got %v", env.EnvFiles)
	}
}

func TestResolveEnvironmentExplicitEnvWins(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{"profiles": {"dev": {"env": "dev.env"}}}`)
	declared := filepath.Join(loaded.Dir, "dev.env")
	if err := os.WriteFile(declared, []byte("SOURCE=profile\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	explicit := filepath.Join(t.TempDir(), "explicit.env")
	if err := os.WriteFile(explicit, []byte("SOURCE=explicit\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := ResolveEnvironment(ResolveOptions{
		BaseDir:   loaded.Dir,
		ConfigDir: loaded.Dir,
		Config:    loaded,
		EnvPath:   explicit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.InitialEnv["SOURCE"] != "explicit" {
		t.Fatalf("explicit env path should win, got %q", env.InitialEnv["SOURCE"])
	}
}

func TestResolveEnvironmentWithoutConfigLoadsExplicitEnv(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	explicit := filepath.Join(base, "only.env")
	if err := os.WriteFile(explicit, []byte("ONLY=yes\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := ResolveEnvironment(ResolveOptions{BaseDir: base, ConfigDir: base, EnvPath: explicit})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.InitialEnv["ONLY"] != "yes" {
		t.Fatalf("expected explicit env to load without config")
	}
	if env.ProfileName != "" {
		t.Fatalf("expected no profile, got %q", env.ProfileName)
	}
}

func TestResolveEnvironmentOutputDirPrecedence(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{
		"responseOutputDir": "root-out",
		"profiles": {"dev": {"responseOutputDir": "profile-out"}, "plain": {}}
	}`)
	base := t.TempDir()

	env, err := ResolveEnvironment(ResolveOptions{BaseDir: base, ConfigDir: loaded.Dir, Config: loaded, Profile: "dev"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.ResponseOutputDir != filepath.Join(loaded.Dir, "profile-out") {
		t.Fatalf("expected profile output dir, got %q", env.ResponseOutputDir)
	}

	env, err = ResolveEnvironment(ResolveOptions{BaseDir: base, ConfigDir: loaded.Dir, Config: loaded, Profile: "plain"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.ResponseOutputDir != filepath.Join(loaded.Dir, "root-out") {
		t.Fatalf("expected root output dir, got %q", env.ResponseOutputDir)
	}

	env, err = ResolveEnvironment(ResolveOptions{
		BaseDir:   base,
		ConfigDir: loaded.Dir,
		Config:    loaded,
		Profile:   "dev",
		OutputDir: "explicit-out",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.ResponseOutputDir != filepath.Join(base, "explicit-out") {
		t.Fatalf("expected explicit output dir anchored to base, got %q", env.ResponseOutputDir)
	}
}

func TestResolveEnvironmentMergesDefaultHeaders(t *testing.T) {
	t.Parallel()

	loaded := loadedConfig(t, `{
		"defaultHeaders": {"Accept": "application/json", "X-Root": "root"},
		"profiles": {
			"dev": {"defaultHeaders": {"Accept": "text/plain"}}
		}
	}`)

	env, err := ResolveEnvironment(ResolveOptions{
		BaseDir:   loaded.Dir,
		ConfigDir: loaded.Dir,
		Config:    loaded,
		Profile:   "dev",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.DefaultHeaders["Accept"] != "text/plain" {
		t.Fatalf("profile header should win, got %q", env.DefaultHeaders["Accept"])
	}
	if env.DefaultHeaders["X-Root"] != "root" {
		t.Fatalf("root header lost: %v", env.DefaultHeaders)
	}
}

package config

import (
	"path/filepath"
	"sort"

	"github.com/unkn0wn-root/recurl/internal/envfile"
	"github.com/unkn0wn-root/recurl/internal/errdef"
)

// Environment is the fully resolved variable context for one invocation.
// It is built once and never mutated afterwards; the request parser works
// on its own copies.
type Environment struct {
	BaseDir           string
	ConfigDir         string
	TemplateVariables map[string]string
	InitialEnv        map[string]string
	EnvFiles          []string
	ProfileName       string
	ResponseOutputDir string
	// DefaultHeaders are added to outgoing requests unless the request
	// already carries a header of the same name. Profile entries win
	// over root entries.
	DefaultHeaders map[string]string
}

type ResolveOptions struct {
	BaseDir   string
	ConfigDir string
	Config    *Loaded
	// Profile selects a profile by name. Empty falls back to the
	// document default, then the lexicographically first profile.
	Profile string
	// EnvPath overrides the profile's declared env file.
	EnvPath string
	// OutputDir overrides any configured response output directory.
	OutputDir string
}

// ResolveEnvironment merges the document's variable layers in precedence
// order (root variables, root vars, profile variables, profile vars),
// seeds the initial env from them, then lets the env file override.
func ResolveEnvironment(opts ResolveOptions) (*Environment, error) {
	env := &Environment{
		BaseDir:           opts.BaseDir,
		ConfigDir:         opts.ConfigDir,
		TemplateVariables: make(map[string]string),
		InitialEnv:        make(map[string]string),
		ResponseOutputDir: opts.OutputDir,
	}

	if opts.Config != nil {
		cfg := opts.Config.Config
		profileName, profile, err := resolveProfile(cfg, opts.Profile)
		if err != nil {
			return nil, err
		}
		env.ProfileName = profileName

		for _, layer := range []map[string]string{
			cfg.Variables,
			cfg.Vars,
			profile.Variables,
			profile.Vars,
		} {
			for k, v := range layer {
				env.TemplateVariables[k] = v
			}
		}
		for k, v := range env.TemplateVariables {
			env.InitialEnv[k] = v
		}

		if len(cfg.DefaultHeaders) > 0 || len(profile.DefaultHeaders) > 0 {
			env.DefaultHeaders = make(map[string]string, len(cfg.DefaultHeaders)+len(profile.DefaultHeaders))
			for k, v := range cfg.DefaultHeaders {
				env.DefaultHeaders[k] = v
			}
			for k, v := range profile.DefaultHeaders {
				env.DefaultHeaders[k] = v
			}
		}

		envPath := opts.EnvPath
		if envPath == "" && profile.Env != "" {
			envPath = filepath.Join(opts.ConfigDir, profile.Env)
		}
		if envPath == "" && cfg.Env != "" {
			envPath = filepath.Join(opts.ConfigDir, cfg.Env)
		}
		if envPath != "" {
			loaded, err := envfile.Load(envPath, env.InitialEnv)
			if err != nil {
				return nil, err
			}
			env.EnvFiles = append(env.EnvFiles, loaded)
		}

		if env.ResponseOutputDir == "" && profile.ResponseOutputDir != "" {
			env.ResponseOutputDir = resolveRelative(opts.ConfigDir, profile.ResponseOutputDir)
		}
		if env.ResponseOutputDir == "" && cfg.ResponseOutputDir != "" {
			env.ResponseOutputDir = resolveRelative(opts.ConfigDir, cfg.ResponseOutputDir)
		}
	} else if opts.EnvPath != "" {
		loaded, err := envfile.Load(opts.EnvPath, env.InitialEnv)
		if err != nil {
			return nil, err
		}
		env.EnvFiles = append(env.EnvFiles, loaded)
	}

	if env.ResponseOutputDir != "" && !filepath.IsAbs(env.ResponseOutputDir) {
		env.ResponseOutputDir = filepath.Join(opts.BaseDir, env.ResponseOutputDir)
	}

	return env, nil
}

func resolveProfile(cfg RootConfig, requested string) (string, ProfileConfig, error) {
	if len(cfg.Profiles) == 0 {
		return "", ProfileConfig{}, errdef.New(errdef.CodeNoProfiles, "no profiles defined in configuration")
	}

	if requested != "" {
		if profile, ok := cfg.Profiles[requested]; ok {
			return requested, profile, nil
		}
		return "", ProfileConfig{}, errdef.New(errdef.CodeUnknownProfile, "unknown profile: %s", requested)
	}

	if cfg.DefaultProfile != "" {
		if profile, ok := cfg.Profiles[cfg.DefaultProfile]; ok {
			return cfg.DefaultProfile, profile, nil
		}
	}

	// No usable default: pick the lexicographically first profile so the
	// choice is stable across runs.
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], cfg.Profiles[names[0]], nil
}

func resolveRelative(base, value string) string {
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(base, value)
}

// Package config loads the recurl.json project document and resolves
// per-invocation environments from it.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

const FileName = "recurl.json"

// ProfileConfig is one named variable bundle inside the project document.
// Unknown fields are tolerated so documents can carry editor metadata.
type ProfileConfig struct {
	Env               string            `json:"env,omitempty"`
	Variables         map[string]string `json:"variables,omitempty"`
	Vars              map[string]string `json:"vars,omitempty"`
	ResponseOutputDir string            `json:"responseOutputDir,omitempty"`
	DefaultHeaders    map[string]string `json:"defaultHeaders,omitempty"`
}

// ImportConfig is the header policy applied when importing curl commands.
type ImportConfig struct {
	IncludeHeaders []string          `json:"includeHeaders,omitempty"`
	ExcludeHeaders []string          `json:"excludeHeaders,omitempty"`
	AppendHeaders  map[string]string `json:"appendHeaders,omitempty"`
}

// RootConfig is the whole project document. `vars` is an alias for
// `variables`; when both are present, `vars` wins for overlapping keys.
type RootConfig struct {
	Profiles          map[string]ProfileConfig `json:"profiles,omitempty"`
	Variables         map[string]string        `json:"variables,omitempty"`
	Vars              map[string]string        `json:"vars,omitempty"`
	DefaultProfile    string                   `json:"defaultProfile,omitempty"`
	ResponseOutputDir string                   `json:"responseOutputDir,omitempty"`
	Env               string                   `json:"env,omitempty"`
	DefaultHeaders    map[string]string        `json:"defaultHeaders,omitempty"`
	Import            *ImportConfig            `json:"import,omitempty"`
}

// Loaded couples a parsed document with where it came from, so relative
// paths inside the document can be resolved against its directory.
type Loaded struct {
	Config RootConfig
	Path   string
	Dir    string
}

// Load reads the project document from target. A directory target looks
// for recurl.json inside it. A missing file is not an error: running
// without a project document is the common case.
func Load(target string) (*Loaded, error) {
	resolved := target
	if !filepath.IsAbs(resolved) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "determining working directory")
		}
		resolved = filepath.Join(cwd, resolved)
	}

	filePath := resolved
	dir := filepath.Dir(resolved)
	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		filePath = filepath.Join(resolved, FileName)
		dir = resolved
	}

	contents, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "reading config %s", filePath)
	}

	var cfg RootConfig
	if err := json.Unmarshal(contents, &cfg); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "parsing config %s", filePath)
	}

	return &Loaded{Config: cfg, Path: filePath, Dir: dir}, nil
}

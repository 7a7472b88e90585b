package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

// Settings are tool preferences, separate from the per-project
// recurl.json document. They never carry variables or profiles.
type Settings struct {
	Timeout         Duration `json:"timeout"          toml:"timeout"`
	FollowRedirects bool     `json:"follow_redirects" toml:"follow_redirects"`
	PreviewBytes    int      `json:"preview_bytes"    toml:"preview_bytes"`
}

// Duration marshals as a Go duration string in both formats.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(data []byte) error {
	parsed, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type SettingsFormat string

type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

const (
	SettingsTimeoutDefault      = 30 * time.Second
	SettingsPreviewBytesDefault = 2048
	SettingsPreviewBytesMax     = 1 << 20
)

func DefaultSettings() Settings {
	return Settings{
		Timeout:         Duration(SettingsTimeoutDefault),
		FollowRedirects: true,
		PreviewBytes:    SettingsPreviewBytesDefault,
	}
}

func NormaliseSettings(in Settings) Settings {
	settings := in
	if settings.Timeout <= 0 {
		settings.Timeout = Duration(SettingsTimeoutDefault)
	}
	if settings.PreviewBytes <= 0 {
		settings.PreviewBytes = SettingsPreviewBytesDefault
	}
	if settings.PreviewBytes > SettingsPreviewBytesMax {
		settings.PreviewBytes = SettingsPreviewBytesMax
	}
	return settings
}

// Dir is where tool settings live; project documents stay with the
// project.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, "recurl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".recurl"
	}
	return filepath.Join(home, ".recurl")
}

// tries loading TOML first, then JSON, then returns defaults if neither exists.
// parse errors fail immediately but missing files just skip to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	return loadSettingsFrom(Dir())
}

func loadSettingsFrom(dir string) (Settings, SettingsHandle, error) {
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return NormaliseSettings(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return DefaultSettings(), candidates[0], nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = NormaliseSettings(settings)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial data.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".recurl-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

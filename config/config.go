// Package config holds the settings shared by the image tools: command-line
// flags, an optional JSON config file and paths resolved next to the
// executable.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/luinbytes/car-images/fetch"
	"github.com/luinbytes/car-images/placeholder"
	"github.com/luinbytes/car-images/storage"
)

const (
	DefaultCatalog       = "stats.json"
	DefaultOut           = "img"
	DefaultDelay         = 500 * time.Millisecond
	DefaultWatchDebounce = 2 * time.Second
	DefaultDriveFolder   = "car-images/img"

	// LocalConfigFile is looked up in the working directory.
	LocalConfigFile = ".carimagesrc.json"
)

// Config holds all configuration options
type Config struct {
	Dir           string   `json:"dir,omitempty"`     // base for relative catalog and output paths
	Catalog       string   `json:"catalog,omitempty"` // catalog file
	Out           string   `json:"out,omitempty"`     // output folder
	Timeout       Duration `json:"timeout,omitempty"`
	Delay         Duration `json:"delay,omitempty"`
	UserAgent     string   `json:"user_agent,omitempty"`
	Font          string   `json:"font,omitempty"`
	FontSize      float64  `json:"font_size,omitempty"`
	NoEmoji       bool     `json:"no_emoji,omitempty"`
	Verbose       bool     `json:"verbose,omitempty"`
	TUI           bool     `json:"tui,omitempty"`
	Watch         bool     `json:"watch,omitempty"`
	WatchDebounce Duration `json:"watch_debounce,omitempty"`
	Dest          string   `json:"dest,omitempty"` // local or gdrive

	Cloud storage.CloudConfig `json:"cloud"`

	// File is the config file that was loaded, if any.
	File string `json:"-"`
}

// Default returns the configuration used when nothing is given.
func Default() Config {
	return Config{
		Catalog:       DefaultCatalog,
		Out:           DefaultOut,
		Timeout:       Duration(fetch.DefaultTimeout),
		Delay:         Duration(DefaultDelay),
		UserAgent:     fetch.DefaultUserAgent,
		Font:          placeholder.DefaultFontPath,
		FontSize:      placeholder.DefaultFontSize,
		WatchDebounce: Duration(DefaultWatchDebounce),
		Dest:          string(storage.ProviderLocal),
		Cloud: storage.CloudConfig{
			GoogleDrive: &storage.GoogleDriveConfig{
				CredentialsFile: "~/.config/car-images/credentials.json",
				TokenFile:       "~/.config/car-images/token.json",
				Folder:          DefaultDriveFolder,
			},
		},
	}
}

func (c *Config) bind(fs *flag.FlagSet, configPath *string) {
	gd := c.drive()

	fs.StringVar(configPath, "config", "", "Config file path (JSON format)")
	fs.StringVar(&c.Dir, "dir", c.Dir, "Base directory for relative paths (default: next to the executable)")
	fs.StringVar(&c.Catalog, "catalog", c.Catalog, "Catalog file")
	fs.StringVar(&c.Out, "out", c.Out, "Output folder")
	fs.DurationVar((*time.Duration)(&c.Timeout), "timeout", time.Duration(c.Timeout), "HTTP timeout per image")
	fs.DurationVar((*time.Duration)(&c.Delay), "delay", time.Duration(c.Delay), "Pause after each download attempt")
	fs.StringVar(&c.UserAgent, "user-agent", c.UserAgent, "User-Agent header for downloads")
	fs.StringVar(&c.Font, "font", c.Font, "TrueType font for placeholder labels")
	fs.Float64Var(&c.FontSize, "font-size", c.FontSize, "Placeholder label font size")
	fs.BoolVar(&c.NoEmoji, "no-emoji", c.NoEmoji, "Disable emoji output for cleaner logs")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Show detailed output")
	fs.BoolVar(&c.TUI, "tui", c.TUI, "Show a progress view instead of log lines")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "Re-run whenever the catalog changes")
	fs.DurationVar((*time.Duration)(&c.WatchDebounce), "watch-debounce", time.Duration(c.WatchDebounce), "Debounce interval for catalog events in watch mode")
	fs.StringVar(&c.Dest, "dest", c.Dest, "Destination: local or gdrive")
	fs.StringVar(&gd.CredentialsFile, "gdrive-credentials", gd.CredentialsFile, "Google OAuth client credentials file")
	fs.StringVar(&gd.TokenFile, "gdrive-token", gd.TokenFile, "Cached Google OAuth token file")
	fs.StringVar(&gd.Folder, "gdrive-folder", gd.Folder, "Drive folder path for images")
}

func (c *Config) drive() *storage.GoogleDriveConfig {
	if c.Cloud.GoogleDrive == nil {
		c.Cloud.GoogleDrive = &storage.GoogleDriveConfig{}
	}
	return c.Cloud.GoogleDrive
}

// Load parses args for the named command. Flags are parsed, the config file
// is applied, then flags are parsed again so the command line wins.
// flag.ErrHelp is returned as is when -h was given.
func Load(name string, args []string) (*Config, error) {
	cfg := Default()
	var configPath string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.bind(fs, &configPath)
	fs.Usage = func() { Usage(fs, name) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	if file := findConfigFile(configPath, home); file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
		cfg.File = file

		// Re-parse flags to override config values
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile applies the lookup order:
// explicit -config > ./.carimagesrc.json > ~/.config/car-images/config.json
func findConfigFile(explicit, home string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(LocalConfigFile); err == nil {
		return LocalConfigFile
	}
	if home != "" {
		global := filepath.Join(home, ".config", "car-images", "config.json")
		if _, err := os.Stat(global); err == nil {
			return global
		}
	}
	return ""
}

func (c *Config) loadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", file, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", file, err)
	}
	return nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	var errs []error
	switch storage.ProviderType(c.Dest) {
	case storage.ProviderLocal:
	case storage.ProviderGoogleDrive:
		if c.drive().CredentialsFile == "" {
			errs = append(errs, errors.New("-gdrive-credentials is required with -dest gdrive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown destination %q (want local or gdrive)", c.Dest))
	}
	if c.Catalog == "" {
		errs = append(errs, errors.New("catalog path is empty"))
	}
	if c.Out == "" {
		errs = append(errs, errors.New("output folder is empty"))
	}
	if c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font size must be positive, got %v", c.FontSize))
	}
	if c.Timeout < 0 || c.Delay < 0 || c.WatchDebounce < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}

// BaseDir is the directory relative catalog and output paths resolve
// against: -dir when given, else the executable's directory, else the
// working directory.
func (c *Config) BaseDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	if dir := BinaryDir(); dir != "" {
		return dir
	}
	return "."
}

// CatalogPath returns the catalog location.
func (c *Config) CatalogPath() string {
	return c.resolve(c.Catalog)
}

// OutPath returns the local output folder.
func (c *Config) OutPath() string {
	return c.resolve(c.Out)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// BinaryDir returns the directory of the running executable, or "" under
// `go run` or when it cannot be determined.
func BinaryDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return binaryDir(execPath)
}

func binaryDir(execPath string) string {
	// Handle symlinks
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		realPath = execPath
	}

	// go run builds into a temporary go-build directory
	base := filepath.Base(realPath)
	if strings.Contains(realPath, "go-build") || strings.HasPrefix(base, "go-build") {
		return ""
	}
	return filepath.Dir(realPath)
}

// Usage prints categorized help text
func Usage(fs *flag.FlagSet, name string) {
	w := fs.Output()
	fmt.Fprintf(w, "Usage: %s [options]\n\n", name)

	fmt.Fprintf(w, "CONFIG:\n")
	fmt.Fprintf(w, "  -config string\n\tConfig file path (JSON). Also checks ./%s and ~/.config/car-images/config.json\n", LocalConfigFile)

	fmt.Fprintf(w, "\nPATHS:\n")
	fmt.Fprintf(w, "  -dir string\n\tBase directory (default: next to the executable, or the current directory under go run)\n")
	fmt.Fprintf(w, "  -catalog string\n\tCatalog file (default: %s)\n", DefaultCatalog)
	fmt.Fprintf(w, "  -out string\n\tOutput folder (default: %s)\n", DefaultOut)

	fmt.Fprintf(w, "\nDOWNLOAD OPTIONS:\n")
	fmt.Fprintf(w, "  -timeout duration\n\tHTTP timeout per image (default: %v)\n", fetch.DefaultTimeout)
	fmt.Fprintf(w, "  -delay duration\n\tPause after each download attempt (default: %v)\n", DefaultDelay)
	fmt.Fprintf(w, "  -user-agent string\n\tUser-Agent header (default: a desktop browser)\n")

	fmt.Fprintf(w, "\nPLACEHOLDER OPTIONS:\n")
	fmt.Fprintf(w, "  -font string\n\tTrueType font (default: %s)\n", placeholder.DefaultFontPath)
	fmt.Fprintf(w, "  -font-size float\n\tFont size (default: %v)\n", placeholder.DefaultFontSize)

	fmt.Fprintf(w, "\nDESTINATION:\n")
	fmt.Fprintf(w, "  -dest string\n\tlocal or gdrive (default: local)\n")
	fmt.Fprintf(w, "  -gdrive-credentials string\n\tGoogle OAuth client credentials file\n")
	fmt.Fprintf(w, "  -gdrive-token string\n\tCached OAuth token file\n")
	fmt.Fprintf(w, "  -gdrive-folder string\n\tDrive folder path (default: %s)\n", DefaultDriveFolder)

	fmt.Fprintf(w, "\nOUTPUT OPTIONS:\n")
	fmt.Fprintf(w, "  -verbose\n\tShow detailed output\n")
	fmt.Fprintf(w, "  -no-emoji\n\tPlain text output (no emoji)\n")
	fmt.Fprintf(w, "  -tui\n\tShow a progress view\n")

	fmt.Fprintf(w, "\nWATCH MODE:\n")
	fmt.Fprintf(w, "  -watch\n\tRe-run whenever the catalog changes\n")
	fmt.Fprintf(w, "  -watch-debounce duration\n\tDebounce interval for catalog events (default: %v)\n", DefaultWatchDebounce)

	fmt.Fprintf(w, "\nEXAMPLES:\n")
	fmt.Fprintf(w, "  %s\n", name)
	fmt.Fprintf(w, "  %s -dir ~/cars -no-emoji\n", name)
	fmt.Fprintf(w, "  %s -watch -tui\n", name)
}

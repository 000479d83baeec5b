package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Destination identifies one of the fixed category output folders.
type Destination string

const (
	DestSFX        Destination = "sfx"
	DestMusic      Destination = "music"
	DestVideo      Destination = "video"
	DestImage      Destination = "image"
	DestDocument   Destination = "document"
	DestSTL        Destination = "stl"
	DestSolidWorks Destination = "solidworks"
)

// AudioSizeThreshold is the size in bytes below which audio counts as short/SFX.
const AudioSizeThreshold int64 = 10_000_000

// SFXMarker routes audio to the SFX folder when present in the uppercased filename.
const SFXMarker = "SFX"

// destinationOrder is the order destinations are created and listed in.
var destinationOrder = []Destination{
	DestSFX,
	DestMusic,
	DestVideo,
	DestImage,
	DestDocument,
	DestSTL,
	DestSolidWorks,
}

// folderNames maps each destination to its folder directly under the watched root.
var folderNames = map[Destination]string{
	DestSFX:        "downloaded_sfx",
	DestMusic:      "downloaded_music",
	DestVideo:      "downloaded_videos",
	DestImage:      "downloaded_images",
	DestDocument:   "downloaded_pdfs",
	DestSTL:        "downloaded_stl",
	DestSolidWorks: "downloaded_solidworks",
}

// AllDestinations returns every destination in creation order.
func AllDestinations() []Destination {
	out := make([]Destination, len(destinationOrder))
	copy(out, destinationOrder)
	return out
}

// FolderName returns the compiled-in folder name for a destination.
func FolderName(d Destination) string {
	return folderNames[d]
}

// Config is built once at startup and passed by value to every component.
// Destination paths are derived from Root and the compiled-in folder names.
type Config struct {
	// Root is the watched directory
	Root string

	// AudioThreshold is the short-audio size cutoff in bytes
	AudioThreshold int64

	// SFXMarker is the filename substring that forces the SFX destination
	SFXMarker string

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string

	// LogDir is where downsort.log is appended; empty disables the file sink
	LogDir string

	// StateDir holds the instance lock and the move journal
	StateDir string

	// Journal enables recording of move outcomes in StateDir
	Journal bool

	// Debounce coalesces bursts of change notifications (0 = no coalescing)
	Debounce time.Duration

	// InitialScan runs one pass before waiting for notifications
	InitialScan bool
}

// DefaultRoot returns ~/Downloads, falling back to ./Downloads when the home
// directory cannot be determined.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// DefaultConfig returns a Config for the given root with compiled-in defaults.
// An empty root selects DefaultRoot.
func DefaultConfig(root string) Config {
	if root == "" {
		root = DefaultRoot()
	}
	return Config{
		Root:           ExpandPath(root),
		AudioThreshold: AudioSizeThreshold,
		SFXMarker:      SFXMarker,
		LogLevel:       "info",
		LogDir:         "",
		StateDir:       "",
		Journal:        true,
		Debounce:       500 * time.Millisecond,
		InitialScan:    true,
	}
}

// ExpandPath expands a leading ~ and returns the cleaned absolute path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Path returns the absolute destination folder for d.
func (c Config) Path(d Destination) string {
	return filepath.Join(c.Root, folderNames[d])
}

// DestinationPaths returns every destination folder in creation order.
func (c Config) DestinationPaths() []string {
	paths := make([]string, 0, len(destinationOrder))
	for _, d := range destinationOrder {
		paths = append(paths, c.Path(d))
	}
	return paths
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(root *string, logLevel *string, logDir *string, debounce *time.Duration, initialScan *bool, journal *bool) {
	if root != nil && *root != "" {
		c.Root = ExpandPath(*root)
	}
	if logLevel != nil {
		c.LogLevel = strings.ToLower(strings.TrimSpace(*logLevel))
	}
	if logDir != nil {
		c.LogDir = ExpandPath(*logDir)
	}
	if debounce != nil {
		c.Debounce = *debounce
	}
	if initialScan != nil {
		c.InitialScan = *initialScan
	}
	if journal != nil {
		c.Journal = *journal
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.AudioThreshold <= 0 {
		return fmt.Errorf("audio threshold must be > 0, got %d", c.AudioThreshold)
	}
	if c.SFXMarker == "" {
		return fmt.Errorf("sfx marker cannot be empty")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must be >= 0, got %v", c.Debounce)
	}

	return nil
}

// DirectoryCreationError reports a destination folder that could not be created.
type DirectoryCreationError struct {
	Path string
	Err  error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

// EnsureDestinations creates every destination folder that does not exist.
// A failure for one folder does not stop the others; all failures are returned.
func (c Config) EnsureDestinations() []error {
	var errs []error
	for _, path := range c.DestinationPaths() {
		if err := os.MkdirAll(path, 0755); err != nil {
			errs = append(errs, &DirectoryCreationError{Path: path, Err: err})
		}
	}
	return errs
}

package storage

import (
	"context"
	"errors"
	"path"
	"time"
)

// ErrExist is returned by Write when the destination name is already taken.
var ErrExist = errors.New("file already exists")

// FileInfo represents a file from any storage provider
type FileInfo struct {
	ID      string    // Provider-specific ID (for local: path)
	Name    string    // File name
	Size    int64     // File size in bytes
	ModTime time.Time // Last modified time
	IsDir   bool      // Is directory
}

// Provider is the destination folder images are written to
type Provider interface {
	// Exists reports whether name is already present in the folder
	Exists(ctx context.Context, name string) (bool, error)

	// Write stores data under name; it never replaces an existing file
	Write(ctx context.Context, name string, data []byte) error

	// List returns the direct entries of the folder
	List(ctx context.Context) ([]FileInfo, error)

	// Location describes the folder for progress output
	Location() string

	// Name returns the provider name
	Name() string

	// Close cleans up provider resources
	Close() error
}

// CloudConfig holds cloud provider configuration
type CloudConfig struct {
	GoogleDrive *GoogleDriveConfig `json:"google_drive,omitempty"`
}

// GoogleDriveConfig holds Google Drive configuration
type GoogleDriveConfig struct {
	CredentialsFile string `json:"credentials_file,omitempty"`
	TokenFile       string `json:"token_file,omitempty"`
	Folder          string `json:"folder,omitempty"`
}

// ProviderType represents the type of storage provider
type ProviderType string

const (
	ProviderLocal       ProviderType = "local"
	ProviderGoogleDrive ProviderType = "gdrive"
)

// IsImageName reports whether name counts as an image in the folder total:
// it contains a dot anywhere, so dotfiles count too.
func IsImageName(name string) bool {
	ok, _ := path.Match("*.*", name)
	return ok
}

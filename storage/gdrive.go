package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// GoogleDriveProvider implements Provider for a Google Drive folder
type GoogleDriveProvider struct {
	service  *drive.Service
	folder   string
	folderID string
}

// NewGoogleDriveProvider authenticates and resolves folder, a slash separated
// path below My Drive. Missing folders are created.
func NewGoogleDriveProvider(ctx context.Context, cfg GoogleDriveConfig) (*GoogleDriveProvider, error) {
	tokenFile := expandHome(cfg.TokenFile)
	credentialsFile := expandHome(cfg.CredentialsFile)

	// Read credentials file
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credBytes, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		token, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
		if err := saveToken(tokenFile, token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	service, err := drive.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	p := &GoogleDriveProvider{
		service: service,
		folder:  cfg.Folder,
	}
	p.folderID, err = p.ensureFolder(ctx, cfg.Folder)
	if err != nil {
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}
	return p, nil
}

// ensureFolder walks path from the Drive root, creating missing parts.
func (p *GoogleDriveProvider) ensureFolder(ctx context.Context, path string) (string, error) {
	parentID := "root"
	for _, part := range splitDrivePath(path) {
		query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
			escapeQuery(part), parentID, folderMimeType)

		result, err := p.service.Files.List().Q(query).Fields("files(id)").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to find folder %s: %w", part, err)
		}

		if len(result.Files) > 0 {
			parentID = result.Files[0].Id
			continue
		}

		created, err := p.service.Files.Create(&drive.File{
			Name:     part,
			MimeType: folderMimeType,
			Parents:  []string{parentID},
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to create folder %s: %w", part, err)
		}
		parentID = created.Id
	}
	return parentID, nil
}

// Exists looks name up among the folder's children
func (p *GoogleDriveProvider) Exists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), p.folderID)
	result, err := p.service.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	return len(result.Files) > 0, nil
}

// Write uploads data as a new file. Drive allows duplicate names, so the
// existence check is repeated here.
func (p *GoogleDriveProvider) Write(ctx context.Context, name string, data []byte) error {
	exists, err := p.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", name, ErrExist)
	}

	_, err = p.service.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{p.folderID},
	}).Media(bytes.NewReader(data)).Fields("id").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

// List lists the folder's children page by page
func (p *GoogleDriveProvider) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo
	query := fmt.Sprintf("'%s' in parents and trashed = false", p.folderID)

	pageToken := ""
	for {
		result, err := p.service.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, size, modifiedTime, mimeType)").
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		for _, file := range result.Files {
			info := FileInfo{
				ID:    file.Id,
				Name:  file.Name,
				Size:  file.Size,
				IsDir: file.MimeType == folderMimeType,
			}
			if file.ModifiedTime != "" {
				info.ModTime, _ = parseDriveTime(file.ModifiedTime)
			}
			files = append(files, info)
		}

		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	return files, nil
}

// Location returns the Drive folder path
func (p *GoogleDriveProvider) Location() string {
	return "drive:/" + strings.Join(splitDrivePath(p.folder), "/")
}

// Name returns the provider name
func (p *GoogleDriveProvider) Name() string {
	return string(ProviderGoogleDrive)
}

// Close cleans up provider resources
func (p *GoogleDriveProvider) Close() error {
	// Nothing to close for Drive service
	return nil
}

// Helper functions

func splitDrivePath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// escapeQuery escapes a value for a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func parseDriveTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func loadToken(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Printf("\n🔐 Go to the following link in your browser:\n%s\n\n", authURL)
	fmt.Print("Enter authorization code: ")

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	return token, nil
}

// Ensure GoogleDriveProvider implements Provider interface
var _ Provider = (*GoogleDriveProvider)(nil)

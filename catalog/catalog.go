// Package catalog reads the car records that drive both image tools.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	// Unknown is substituted for a missing make or model.
	Unknown = "unknown"
	// Null stands for a make or model given as JSON null.
	Null = "None"
)

// ErrNotFound is returned when the catalog file does not exist.
var ErrNotFound = errors.New("catalog not found")

// ParseError reports a catalog that is not a JSON array of objects.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Record is one car entry of the catalog
type Record struct {
	Index    int
	Make     string
	Model    string
	ImageURL string
}

// Label is the two-line text drawn on placeholders.
func (r Record) Label() string {
	return r.Make + "\n" + r.Model
}

// Title is used in progress lines.
func (r Record) Title() string {
	return r.Make + " " + r.Model
}

// HasImageURL reports whether the record names an image source.
func (r Record) HasImageURL() bool {
	return r.ImageURL != ""
}

// field is a string value that remembers whether its key was present and
// whether it was null.
type field struct {
	set  bool
	null bool
	val  string
}

func (f *field) UnmarshalJSON(data []byte) error {
	f.set = true
	if string(data) == "null" {
		f.null = true
		return nil
	}
	return json.Unmarshal(data, &f.val)
}

// or returns the value of f, missing when the key was absent.
func (f field) or(missing string) string {
	switch {
	case !f.set:
		return missing
	case f.null:
		return Null
	default:
		return f.val
	}
}

type rawRecord struct {
	Make     field `json:"make"`
	Model    field `json:"model"`
	ImageURL field `json:"image_url"`
}

func (raw rawRecord) record(i int) Record {
	return Record{
		Index:    i,
		Make:     raw.Make.or(Unknown),
		Model:    raw.Model.or(Unknown),
		ImageURL: raw.ImageURL.val,
	}
}

// Load reads the catalog at path. Order of the source document is kept.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("cannot read catalog %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes catalog bytes; name is only used in errors.
func Parse(name string, data []byte) ([]Record, error) {
	var raws []rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		records = append(records, raw.record(i))
	}
	return records, nil
}

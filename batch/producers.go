package batch

import (
	"context"

	"github.com/luinbytes/car-images/catalog"
	"github.com/luinbytes/car-images/fetch"
	"github.com/luinbytes/car-images/naming"
	"github.com/luinbytes/car-images/placeholder"
)

// Downloader fetches each record's image_url
type Downloader struct {
	Client *fetch.Client
}

// Ext keeps the extension of the URL, .jpg when it has none.
func (d Downloader) Ext(rec catalog.Record) string {
	return naming.ExtFromURL(rec.ImageURL)
}

func (d Downloader) Produce(ctx context.Context, rec catalog.Record) ([]byte, error) {
	return d.Client.Get(ctx, rec.ImageURL)
}

// Placeholders renders a stand-in image per record
type Placeholders struct {
	Renderer *placeholder.Renderer
}

// Ext is always .jpg; the renderer only emits JPEG.
func (p Placeholders) Ext(catalog.Record) string {
	return ".jpg"
}

func (p Placeholders) Produce(_ context.Context, rec catalog.Record) ([]byte, error) {
	return p.Renderer.Generate(rec.Label())
}

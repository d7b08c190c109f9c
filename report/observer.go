package report

import (
	"github.com/rs/zerolog"

	"github.com/luinbytes/car-images/batch"
)

// LogObserver writes one log line per run event
type LogObserver struct {
	Log     zerolog.Logger
	Mode    Mode
	Markers Markers
	// Where turns a destination name into the path shown to the user.
	// The bare name is shown when nil.
	Where func(name string) string
}

func (o LogObserver) where(name string) string {
	if o.Where == nil {
		return name
	}
	return o.Where(name)
}

func (o LogObserver) Observe(e batch.Event) {
	m := o.Markers
	rec := e.Record

	switch e.Kind {
	case batch.Skipped:
		ev := o.Log.Warn().Int("index", rec.Index).Str("reason", string(e.Reason))
		if e.Reason == batch.NoImageURL {
			ev.Msgf("%sSkipping %s: No image_url", m.Emoji(Warn), rec.Title())
			return
		}
		ev.Msgf("%sSkipping %s: File already exists at %s", m.Emoji(Warn), rec.Title(), o.where(e.Name))

	case batch.Started:
		ev := o.Log.Info().Int("index", rec.Index).Int("total", e.Total)
		if o.Mode == Placeholder {
			ev.Msgf("Creating placeholder for %s", rec.Title())
			return
		}
		ev.Msgf("Downloading %s from %s", rec.Title(), rec.ImageURL)

	case batch.Created:
		ev := o.Log.Info().Int("index", rec.Index)
		if o.Mode == Placeholder {
			ev.Msgf("%sCreated placeholder: %s", m.Emoji(OK), o.where(e.Name))
			return
		}
		ev.Msgf("%sDownloaded: %s", m.Emoji(OK), o.where(e.Name))

	case batch.Failed:
		ev := o.Log.Error().Int("index", rec.Index)
		if o.Mode == Placeholder {
			ev.Msgf("%sFailed to create placeholder %s", m.Emoji(Fail), FormatError(o.where(e.Name), e.Err))
			return
		}
		ev.Msgf("%sFailed to download %s", m.Emoji(Fail), FormatError(rec.ImageURL, e.Err))
	}
}

// Package batch runs one image tool over a catalog: for every record it
// derives the destination name, skips what is already there and asks a
// Producer for the bytes of the rest. Records are handled one at a time, in
// catalog order.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/luinbytes/car-images/catalog"
	"github.com/luinbytes/car-images/naming"
	"github.com/luinbytes/car-images/storage"
)

// Producer supplies the image for a record
type Producer interface {
	// Ext is the extension, with its dot, of the file written for rec.
	Ext(rec catalog.Record) string
	// Produce returns the file content for rec.
	Produce(ctx context.Context, rec catalog.Record) ([]byte, error)
}

// Kind is the type of an Event.
type Kind int

const (
	Started Kind = iota
	Created
	Skipped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Started:
		return "started"
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SkipReason says why a record produced no file.
type SkipReason string

const (
	NoImageURL    SkipReason = "no image_url"
	AlreadyExists SkipReason = "already exists"
)

// Event reports progress on one record
type Event struct {
	Kind   Kind
	Record catalog.Record
	Name   string // destination file name, empty when skipped for a missing URL
	Reason SkipReason
	Err    error
	Total  int // records in the catalog
}

// Observer receives events as the run progresses.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Tally counts record outcomes of a run
type Tally struct {
	Total         int
	Created       int
	Skipped       int
	SkippedNoURL  int
	SkippedExists int
	Failed        int
}

// Add counts the outcome carried by e; Started events are ignored.
func (t *Tally) Add(e Event) {
	switch e.Kind {
	case Created:
		t.Created++
	case Failed:
		t.Failed++
	case Skipped:
		t.Skipped++
		if e.Reason == NoImageURL {
			t.SkippedNoURL++
		} else {
			t.SkippedExists++
		}
	}
}

// Runner holds what a run needs
type Runner struct {
	Store    storage.Provider
	Producer Producer
	// Delay is the pause after every produce attempt, whatever its outcome.
	Delay    time.Duration
	Observer Observer
}

// FileName returns the destination name for rec.
func (r *Runner) FileName(rec catalog.Record) string {
	return naming.Base(rec.Make, rec.Model) + r.Producer.Ext(rec)
}

// Run processes records in order. Per-record failures are counted, not
// returned; the error is non-nil only when ctx ends the run early.
func (r *Runner) Run(ctx context.Context, records []catalog.Record) (Tally, error) {
	tally := Tally{Total: len(records)}

	emit := func(e Event) {
		e.Total = len(records)
		tally.Add(e)
		if r.Observer != nil {
			r.Observer.Observe(e)
		}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		if !rec.HasImageURL() {
			emit(Event{Kind: Skipped, Record: rec, Reason: NoImageURL})
			continue
		}

		name := r.FileName(rec)
		exists, err := r.Store.Exists(ctx, name)
		if err != nil {
			emit(Event{Kind: Failed, Record: rec, Name: name, Err: err})
			continue
		}
		if exists {
			emit(Event{Kind: Skipped, Record: rec, Name: name, Reason: AlreadyExists})
			continue
		}

		emit(Event{Kind: Started, Record: rec, Name: name})
		if err := r.produce(ctx, rec, name); err != nil {
			emit(Event{Kind: Failed, Record: rec, Name: name, Err: err})
		} else {
			emit(Event{Kind: Created, Record: rec, Name: name})
		}

		if err := sleep(ctx, r.Delay); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

func (r *Runner) produce(ctx context.Context, rec catalog.Record, name string) error {
	data, err := r.Producer.Produce(ctx, rec)
	if err != nil {
		return err
	}
	return r.Store.Write(ctx, name, data)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsCanceled reports whether err ended a run because its context was done.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

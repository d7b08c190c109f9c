package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luinbytes/car-images/batch"
	"github.com/luinbytes/car-images/catalog"
	"github.com/luinbytes/car-images/report"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return model, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelEvents(t *testing.T) {
	m := New(report.Download, report.Markers{}, "/data/img", 3)

	a := catalog.Record{Make: "Acme", Model: "Volt X", ImageURL: "http://x/v.png"}
	b := catalog.Record{Index: 1, Make: "Zeta", Model: "Bolt", ImageURL: "http://x/b"}
	c := catalog.Record{Index: 2, Make: "NoPic", Model: "Car"}

	events := []batch.Event{
		{Kind: batch.Started, Record: a, Name: "acme-volt-x.png", Total: 3},
		{Kind: batch.Created, Record: a, Name: "acme-volt-x.png", Total: 3},
		{Kind: batch.Started, Record: b, Name: "zeta-bolt.jpg", Total: 3},
	}
	for _, e := range events {
		m, _ = update(t, m, EventMsg(e))
	}

	if got := m.Percent(); got < 0.33 || got > 0.34 {
		t.Errorf("Percent() = %v, want 1/3", got)
	}
	view := m.View()
	for _, want := range []string{"download-images", "/data/img", "Downloading Zeta Bolt", "acme-volt-x.png", "1/3"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, EventMsg{Kind: batch.Failed, Record: b, Name: "zeta-bolt.jpg", Err: errors.New("boom"), Total: 3})
	m, _ = update(t, m, EventMsg{Kind: batch.Skipped, Record: c, Reason: batch.NoImageURL, Total: 3})

	want := batch.Tally{Created: 1, Failed: 1, Skipped: 1, SkippedNoURL: 1}
	if m.tally != want {
		t.Errorf("tally = %+v, want %+v", m.tally, want)
	}
	if got := m.Percent(); got != 1 {
		t.Errorf("Percent() = %v, want 1", got)
	}
	view = m.View()
	for _, want := range []string{"http://x/b: boom", "NoPic Car (no image_url)", "created 1 · skipped 1 · failed 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestModelRecentIsBounded(t *testing.T) {
	m := New(report.Placeholder, report.Markers{NoEmoji: true}, "img", 10)
	for i := 0; i < 10; i++ {
		rec := catalog.Record{Index: i, Make: "M", Model: string(rune('a' + i)), ImageURL: "u"}
		m, _ = update(t, m, EventMsg{Kind: batch.Created, Record: rec, Name: "m-" + string(rune('a'+i)) + ".jpg"})
	}
	if len(m.recent) != maxRecent {
		t.Errorf("recent = %d lines, want %d", len(m.recent), maxRecent)
	}
	if strings.Contains(m.View(), "m-a.jpg") {
		t.Error("View() still shows the oldest line")
	}
	if !strings.Contains(m.View(), "m-j.jpg") {
		t.Error("View() misses the newest line")
	}
}

func TestModelKeys(t *testing.T) {
	m := New(report.Download, report.Markers{}, "img", 1)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.showHelp || cmd != nil {
		t.Errorf("? key: showHelp = %v, cmd = %v", m.showHelp, cmd)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.showLog {
		t.Error("tab key did not hide recent lines")
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !m.quitting {
		t.Error("q key did not set quitting")
	}
	if !isQuit(cmd) {
		t.Error("q key did not return tea.Quit")
	}
	if !strings.Contains(m.View(), "Stopping") {
		t.Errorf("View() after quit = %q", m.View())
	}
}

func TestModelDone(t *testing.T) {
	m := New(report.Download, report.Markers{NoEmoji: true}, "img", 0)
	m, cmd := update(t, m, DoneMsg{})
	if !isQuit(cmd) {
		t.Error("DoneMsg did not return tea.Quit")
	}
	if !strings.Contains(m.View(), "Finished") {
		t.Errorf("View() = %q, want Finished", m.View())
	}
}

func TestModelWindowSize(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{200, maxBarWidth},
		{50, 50 - barPadding},
		{12, minBarWidth},
	}
	for _, tt := range tests {
		m := New(report.Download, report.Markers{}, "img", 1)
		m, _ = update(t, m, tea.WindowSizeMsg{Width: tt.width, Height: 20})
		if m.progress.Width != tt.want {
			t.Errorf("width %d: progress width = %d, want %d", tt.width, m.progress.Width, tt.want)
		}
	}
}

// runTUI calls Run without a terminal and fails the test if it hangs.
func runTUI(t *testing.T, ctx context.Context, work Work, opts ...tea.ProgramOption) (report.Summary, error) {
	t.Helper()
	type result struct {
		summary report.Summary
		err     error
	}
	m := New(report.Download, report.Markers{NoEmoji: true}, "img", 2)
	opts = append([]tea.ProgramOption{tea.WithOutput(io.Discard)}, opts...)

	done := make(chan result, 1)
	go func() {
		summary, err := Run(ctx, m, work, opts...)
		done <- result{summary, err}
	}()
	select {
	case r := <-done:
		return r.summary, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
		return report.Summary{}, nil
	}
}

func TestRunFinishes(t *testing.T) {
	rec := catalog.Record{Make: "Acme", Model: "Volt", ImageURL: "http://x/a.png"}
	want := report.Summary{Mode: report.Download, Tally: batch.Tally{Total: 2, Created: 1, Skipped: 1, SkippedNoURL: 1}, InFolder: 1}

	summary, err := runTUI(t, context.Background(), func(ctx context.Context, obs batch.Observer) (report.Summary, error) {
		obs.Observe(batch.Event{Kind: batch.Started, Record: rec, Name: "acme-volt.png", Total: 2})
		obs.Observe(batch.Event{Kind: batch.Created, Record: rec, Name: "acme-volt.png", Total: 2})
		obs.Observe(batch.Event{Kind: batch.Skipped, Record: catalog.Record{Index: 1}, Reason: batch.NoImageURL, Total: 2})
		return want, nil
	}, tea.WithInput(nil))

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary != want {
		t.Errorf("Run() = %+v, want %+v", summary, want)
	}
}

func TestRunReturnsWorkError(t *testing.T) {
	boom := errors.New("boom")
	_, err := runTUI(t, context.Background(), func(ctx context.Context, obs batch.Observer) (report.Summary, error) {
		return report.Summary{}, boom
	}, tea.WithInput(nil))
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

func TestRunParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	sawCancel := make(chan struct{})

	go func() {
		<-started
		cancel()
	}()

	summary, err := runTUI(t, ctx, func(ctx context.Context, obs batch.Observer) (report.Summary, error) {
		close(started)
		<-ctx.Done()
		close(sawCancel)
		return report.Summary{Mode: report.Download, InFolder: 3}, ctx.Err()
	}, tea.WithInput(nil))

	select {
	case <-sawCancel:
	default:
		t.Error("work did not see the cancel")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if summary.InFolder != 3 {
		t.Errorf("Run() summary = %+v, want the one work returned", summary)
	}
}

func TestRunQuitKeyCancelsWork(t *testing.T) {
	sawCancel := make(chan struct{})

	_, err := runTUI(t, context.Background(), func(ctx context.Context, obs batch.Observer) (report.Summary, error) {
		<-ctx.Done()
		close(sawCancel)
		return report.Summary{}, ctx.Err()
	}, tea.WithInput(strings.NewReader("q")))

	select {
	case <-sawCancel:
	default:
		t.Error("work did not see the cancel")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

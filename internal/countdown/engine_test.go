package countdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/five82/tminus/internal/resolve"
)

type fakeSource struct {
	mu      sync.Mutex
	values  map[string]string
	errs    map[string]error
	timer   resolve.Timer
	hasTime bool
	block   chan struct{}
	entered chan struct{}
	calls   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{values: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeSource) set(key, value string) {
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
}

func (f *fakeSource) Resolve(ctx context.Context, value string) (string, bool, error) {
	f.mu.Lock()
	f.calls++
	block, entered := f.block, f.entered
	out, ok := f.values[value]
	err := f.errs[value]
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return out, ok, err
}

func (f *fakeSource) Timer(ctx context.Context, entityID string) (resolve.Timer, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timer, f.hasTime, nil
}

type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) add(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *errorLog) has(target error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, err := range l.errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func fixed(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTick_OneDayExactly(t *testing.T) {
	now := time.Date(2098, 12, 31, 0, 0, 0, 0, time.UTC)
	settings := Settings{
		Target: "2099-01-01T00:00:00",
		Units:  Units{Days: true, Hours: true},
	}
	engine := New(settings, resolve.New(nil), WithClock(fixed(now)), WithLocation(time.UTC))

	res, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	want := Remaining{Days: 1, Total: 24 * time.Hour}
	if res.Remaining != want {
		t.Fatalf("Remaining = %+v, want %+v", res.Remaining, want)
	}
	if res.Expired {
		t.Fatalf("Expired = true, want false")
	}
	if res.Display.Subtitle != "1 day" {
		t.Fatalf("Subtitle = %q, want %q", res.Display.Subtitle, "1 day")
	}
}

func TestTick_PastTargetIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := New(Settings{Target: "2020-01-01T00:00:00", Units: DefaultUnits}, resolve.New(nil),
		WithClock(fixed(now)), WithLocation(time.UTC))

	res, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if res.Remaining != (Remaining{}) {
		t.Fatalf("Remaining = %+v, want zero", res.Remaining)
	}
	if !res.Expired || res.Progress != 100 {
		t.Fatalf("Expired = %v Progress = %v, want true 100", res.Expired, res.Progress)
	}
	if res.Display.Value != DefaultExpiredText {
		t.Fatalf("Display.Value = %q, want %q", res.Display.Value, DefaultExpiredText)
	}
}

func TestTick_FailuresKeepPreviousResult(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	var mu sync.Mutex
	source := newFakeSource()
	source.set("sensor.deadline", "2025-01-02T00:00:00")

	var reported errorLog
	var ticks int
	engine := New(Settings{Target: "sensor.deadline", Units: DefaultUnits}, source,
		WithClock(func() time.Time { mu.Lock(); defer mu.Unlock(); return clock }),
		WithLocation(time.UTC),
		OnTick(func(Result) { ticks++ }),
		OnError(reported.add),
	)

	first, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}

	tests := []struct {
		name  string
		apply func()
		want  error
	}{
		{
			name:  "unresolved",
			apply: func() { source.mu.Lock(); delete(source.values, "sensor.deadline"); source.mu.Unlock() },
			want:  ErrTargetUnresolved,
		},
		{
			name:  "unparseable",
			apply: func() { source.set("sensor.deadline", "soon") },
			want:  ErrInvalidTarget,
		},
		{
			name: "backend failure",
			apply: func() {
				source.mu.Lock()
				source.errs["sensor.deadline"] = fmt.Errorf("%w: boom", resolve.ErrBackend)
				source.mu.Unlock()
			},
			want: ErrTargetUnresolved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.apply()
			mu.Lock()
			clock = clock.Add(time.Hour)
			mu.Unlock()

			if _, err := engine.Tick(context.Background()); !errors.Is(err, tt.want) {
				t.Fatalf("Tick error = %v, want %v", err, tt.want)
			}
			if !reported.has(tt.want) {
				t.Fatalf("OnError did not receive %v", tt.want)
			}
			latest, ok := engine.Latest()
			if !ok || latest != first {
				t.Fatalf("Latest = %+v, want previous %+v", latest, first)
			}
		})
	}
	if ticks != 1 {
		t.Fatalf("OnTick called %d times, want 1", ticks)
	}
}

func TestTick_TemplateFallbackIsStillUsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := newFakeSource()
	tmpl := "{{ states('input_datetime.trip') or '2025-01-03T00:00:00' }}"
	source.set(tmpl, "2025-01-03T00:00:00")
	source.errs[tmpl] = fmt.Errorf("%w: both transports down", resolve.ErrTemplate)

	var reported errorLog
	engine := New(Settings{Target: tmpl, Units: Units{Days: true}}, source,
		WithClock(fixed(now)), WithLocation(time.UTC), OnError(reported.add))

	res, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if res.Remaining.Days != 2 {
		t.Fatalf("Days = %d, want 2", res.Remaining.Days)
	}
	if !reported.has(resolve.ErrTemplate) {
		t.Fatalf("template error was not reported")
	}
}

func TestTick_CreationDate(t *testing.T) {
	now := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	source := newFakeSource()
	source.set("2025-01-11T00:00:00", "2025-01-11T00:00:00")
	source.set("2025-01-01T00:00:00", "2025-01-01T00:00:00")

	engine := New(Settings{Target: "2025-01-11T00:00:00", Creation: "2025-01-01T00:00:00", Units: DefaultUnits},
		source, WithClock(fixed(now)), WithLocation(time.UTC))

	res, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if res.Progress != 50 {
		t.Fatalf("Progress = %v, want 50", res.Progress)
	}
}

func TestTick_UnresolvedCreationFallsBackToConfiguredAt(t *testing.T) {
	configured := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := configured
	source := newFakeSource()
	source.set("2025-01-03T00:00:00", "2025-01-03T00:00:00")

	var reported errorLog
	engine := New(Settings{Target: "2025-01-03T00:00:00", Creation: "sensor.missing", Units: DefaultUnits},
		source, WithClock(func() time.Time { return clock }), WithLocation(time.UTC), OnError(reported.add))

	clock = configured.Add(12 * time.Hour)
	res, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if !res.Creation.Equal(configured) {
		t.Fatalf("Creation = %v, want %v", res.Creation, configured)
	}
	if res.Progress != 25 {
		t.Fatalf("Progress = %v, want 25", res.Progress)
	}
	if !reported.has(ErrCreationUnresolved) {
		t.Fatalf("creation error was not reported")
	}
}

func TestTick_TimerEntity(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	source := newFakeSource()
	source.timer = resolve.Timer{
		Status:     resolve.TimerActive,
		FinishesAt: now.Add(30 * time.Minute),
		Duration:   time.Hour,
	}
	source.hasTime = true

	engine := New(Settings{Timer: "timer.laundry", Units: Units{Minutes: true}}, source,
		WithClock(fixed(now)), WithLocation(time.UTC))

	res, err := engine.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if res.Remaining.Minutes != 30 {
		t.Fatalf("Minutes = %d, want 30", res.Remaining.Minutes)
	}
	if res.Progress != 50 {
		t.Fatalf("Progress = %v, want 50", res.Progress)
	}
}

func TestStart_PublishesImmediately(t *testing.T) {
	now := time.Date(2098, 12, 31, 0, 0, 0, 0, time.UTC)
	got := make(chan Result, 8)
	engine := New(Settings{Target: "2099-01-01T00:00:00", Units: DefaultUnits}, resolve.New(nil),
		WithClock(fixed(now)), WithLocation(time.UTC), WithInterval(time.Hour),
		OnTick(func(r Result) { got <- r }))

	h := engine.Start(context.Background())
	defer h.Stop()

	select {
	case r := <-got:
		if r.Remaining.Days != 1 {
			t.Fatalf("Days = %d, want 1", r.Remaining.Days)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick published after Start")
	}
}

func TestStop_DiscardsInFlightTick(t *testing.T) {
	now := time.Date(2098, 12, 31, 0, 0, 0, 0, time.UTC)
	source := newFakeSource()
	source.set("sensor.deadline", "2099-01-01T00:00:00")
	source.block = make(chan struct{})
	source.entered = make(chan struct{}, 1)

	published := make(chan Result, 1)
	engine := New(Settings{Target: "sensor.deadline", Units: DefaultUnits}, source,
		WithClock(fixed(now)), WithLocation(time.UTC), WithInterval(time.Hour),
		OnTick(func(r Result) { published <- r }))

	h := engine.Start(context.Background())
	select {
	case <-source.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("tick never reached the source")
	}
	h.Stop()
	close(source.block)

	select {
	case r := <-published:
		t.Fatalf("stopped engine published %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
	if _, ok := engine.Latest(); ok {
		t.Fatalf("Latest reports a result after Stop")
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("Done not closed after Stop")
	}
}

func TestStart_RestartStopsPrevious(t *testing.T) {
	engine := New(Settings{Target: "2099-01-01T00:00:00", Units: DefaultUnits}, resolve.New(nil),
		WithInterval(time.Hour))
	first := engine.Start(context.Background())
	second := engine.Start(context.Background())
	defer second.Stop()

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("first handle still running after restart")
	}
}

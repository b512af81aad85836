package playback

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/analyzer"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
)

func embedTrack(id string) playlist.Track {
	return playlist.Track{
		ID:       playlist.ID(id),
		Title:    "Title " + id,
		Artist:   "Artist",
		Source:   "https://www.youtube.com/watch?v=dQw4w9WgXc" + id[:1],
		Duration: 3 * time.Minute,
	}
}

func directTrack(id string) playlist.Track {
	return playlist.Track{
		ID:       playlist.ID(id),
		Title:    "Title " + id,
		Artist:   "Artist",
		Source:   "/music/" + id + ".mp3",
		Duration: 2 * time.Minute,
	}
}

type sineSource struct{}

func (sineSource) Samples(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}
	return out
}

// resolverFunc adapts a function to Resolver.
type resolverFunc func(ctx context.Context, current playlist.Track) (playlist.Track, bool)

func (f resolverFunc) Resolve(ctx context.Context, current playlist.Track) (playlist.Track, bool) {
	return f(ctx, current)
}

type fixture struct {
	svc    Service
	embed  *player.Mock
	direct *player.Mock
	frames *analyzer.Loop
}

func newFixture(t *testing.T, resolver Resolver) *fixture {
	t.Helper()
	f := &fixture{
		embed:  player.NewMock(player.KindEmbed),
		direct: player.NewMock(player.KindDirect),
		frames: analyzer.NewLoop(sineSource{}, analyzer.New(44100, 0, 0, 0), 0),
	}
	f.svc = New(Config{
		Backends: []player.Backend{f.embed, f.direct},
		Resolver: resolver,
		Frames:   f.frames,
		Volume:   80,
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(func() { _ = f.svc.Close() })
	return f
}

func TestService_InitialState(t *testing.T) {
	f := newFixture(t, nil)

	if f.svc.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", f.svc.State())
	}
	if f.svc.CurrentTrack() != nil {
		t.Error("CurrentTrack() should be nil")
	}
	if f.svc.ActiveBackend() != player.KindNone {
		t.Errorf("ActiveBackend() = %v, want none", f.svc.ActiveBackend())
	}
	if f.svc.Volume() != 80 {
		t.Errorf("Volume() = %d, want 80", f.svc.Volume())
	}
	if f.svc.Frequency() != nil {
		t.Error("Frequency() should be nil when idle")
	}
}

func TestService_PlayTrack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		sub := f.svc.Subscribe()
		a := embedTrack("a")

		if err := f.svc.PlayTrack(t.Context(), a); err != nil {
			t.Fatalf("PlayTrack() error = %v", err)
		}

		if f.svc.State() != StatePlaying {
			t.Errorf("State() = %v, want Playing", f.svc.State())
		}
		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(a) {
			t.Errorf("CurrentTrack() = %v, want %v", cur, a.ID)
		}
		if f.svc.ActiveBackend() != player.KindEmbed {
			t.Errorf("ActiveBackend() = %v, want embed", f.svc.ActiveBackend())
		}
		if !f.embed.Playing() || !f.embed.Watched() {
			t.Error("embed backend should be playing and watched")
		}
		if got := f.svc.History().Tracks(); len(got) != 1 || !got[0].Is(a) {
			t.Errorf("History() = %v, want [a]", got)
		}

		wantStates := []State{StateLoading, StatePlaying}
		for _, want := range wantStates {
			select {
			case e := <-sub.StateChanged:
				if e.Current != want {
					t.Errorf("state event = %v, want %v", e.Current, want)
				}
			default:
				t.Fatalf("missing state event %v", want)
			}
		}
		select {
		case e := <-sub.TrackChanged:
			if e.Previous != nil || e.Current == nil || !e.Current.Is(a) || e.Backend != player.KindEmbed {
				t.Errorf("track event = %+v", e)
			}
		default:
			t.Fatal("missing track event")
		}
	})
}

func TestService_PlayTrack_Unsupported(t *testing.T) {
	f := newFixture(t, nil)

	err := f.svc.PlayTrack(context.Background(), playlist.Track{ID: "x"})
	if !errors.Is(err, player.ErrUnsupportedSource) {
		t.Errorf("PlayTrack() error = %v, want ErrUnsupportedSource", err)
	}
	if f.svc.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", f.svc.State())
	}
}

func TestService_PositionUpdates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		f.embed.SetDuration(200 * time.Second)
		_ = f.svc.PlayTrack(t.Context(), embedTrack("a"))

		f.embed.Emit(42 * time.Second)

		if f.svc.Position() != 42*time.Second {
			t.Errorf("Position() = %v, want 42s", f.svc.Position())
		}
		if f.svc.Duration() != 200*time.Second {
			t.Errorf("Duration() = %v, want 200s", f.svc.Duration())
		}
	})
}

func TestService_LoadFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		sub := f.svc.Subscribe()
		b := embedTrack("b")
		f.svc.Queue().Enqueue(b)
		f.embed.SetLoadError(errors.New("video unavailable"))
		a := embedTrack("a")

		if err := f.svc.PlayTrack(t.Context(), a); err == nil {
			t.Fatal("PlayTrack() should return the load error")
		}
		synctest.Wait()

		if f.svc.State() != StatePaused {
			t.Errorf("State() = %v, want Paused", f.svc.State())
		}
		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(a) {
			t.Errorf("CurrentTrack() = %v, want a", cur)
		}
		if f.svc.Queue().Len() != 1 {
			t.Errorf("queue should not advance on load failure, len = %d", f.svc.Queue().Len())
		}
		select {
		case e := <-sub.Error:
			if e.Op != errmsg.OpPlaybackLoad {
				t.Errorf("error op = %v, want %v", e.Op, errmsg.OpPlaybackLoad)
			}
		default:
			t.Error("missing error event")
		}

		// Toggling retries the load.
		f.embed.SetLoadError(nil)
		if err := f.svc.TogglePlay(); err != nil {
			t.Fatalf("TogglePlay() error = %v", err)
		}
		if f.svc.State() != StatePlaying {
			t.Errorf("State() after retry = %v, want Playing", f.svc.State())
		}
	})
}

func TestService_PlaybackRefused(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		f.direct.SetPlayError(player.ErrPlaybackRefused)

		if err := f.svc.PlayTrack(t.Context(), directTrack("a")); err != nil {
			t.Fatalf("PlayTrack() error = %v, want nil", err)
		}
		if f.svc.State() != StatePaused {
			t.Errorf("State() = %v, want Paused", f.svc.State())
		}
		if f.svc.Frequency() != nil {
			t.Error("Frequency() should be nil while paused")
		}

		f.direct.SetPlayError(nil)
		_ = f.svc.TogglePlay()
		if f.svc.State() != StatePlaying {
			t.Errorf("State() = %v, want Playing", f.svc.State())
		}
	})
}

func TestService_TogglePlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)

		// Idle is a no-op
		if err := f.svc.TogglePlay(); err != nil {
			t.Fatalf("TogglePlay() error = %v", err)
		}
		if f.svc.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", f.svc.State())
		}

		_ = f.svc.PlayTrack(t.Context(), embedTrack("a"))
		_ = f.svc.TogglePlay()
		if f.svc.State() != StatePaused || f.embed.Playing() {
			t.Errorf("after pause: State() = %v, backend playing = %v", f.svc.State(), f.embed.Playing())
		}
		_ = f.svc.TogglePlay()
		if f.svc.State() != StatePlaying || !f.embed.Playing() {
			t.Errorf("after resume: State() = %v, backend playing = %v", f.svc.State(), f.embed.Playing())
		}
	})
}

func TestService_SwitchBackendIsolation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		_ = f.svc.PlayTrack(t.Context(), directTrack("a"))
		time.Sleep(5 * f.frames.Interval())
		if !f.frames.Running() {
			t.Fatal("frame loop should run for the direct backend")
		}

		e := embedTrack("e")
		_ = f.svc.PlayTrack(t.Context(), e)

		if f.direct.Teardowns() != 1 {
			t.Errorf("direct Teardowns() = %d, want 1", f.direct.Teardowns())
		}
		if f.direct.Live() || !f.embed.Live() {
			t.Errorf("live: direct = %v, embed = %v; want only embed", f.direct.Live(), f.embed.Live())
		}
		if f.direct.Emit(10 * time.Second) {
			t.Error("torn-down backend should have no watcher")
		}
		if f.direct.SimulateEnded() {
			t.Error("torn-down backend should have no watcher")
		}
		if f.frames.Running() || f.svc.Frequency() != nil {
			t.Error("frame loop should stop when leaving the direct backend")
		}
		if cur := f.svc.CurrentTrack(); !cur.Is(e) || f.svc.State() != StatePlaying {
			t.Errorf("current = %v state = %v", cur.ID, f.svc.State())
		}
	})
}

func TestService_SameBackendNotTornDown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		_ = f.svc.PlayTrack(t.Context(), embedTrack("a"))
		_ = f.svc.PlayTrack(t.Context(), embedTrack("b"))

		if f.embed.Teardowns() != 0 {
			t.Errorf("Teardowns() = %d, want 0", f.embed.Teardowns())
		}
		if n := len(f.embed.LoadCalls()); n != 2 {
			t.Errorf("LoadCalls = %d, want 2", n)
		}
	})
}

func TestService_VolumePersistsAcrossBackends(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)

		f.svc.SetVolume(30)
		_ = f.svc.PlayTrack(t.Context(), embedTrack("a"))
		if f.embed.Volume() != 30 {
			t.Errorf("embed Volume() = %d, want 30", f.embed.Volume())
		}

		_ = f.svc.PlayTrack(t.Context(), directTrack("b"))
		if f.direct.Volume() != 30 {
			t.Errorf("direct Volume() = %d, want 30", f.direct.Volume())
		}

		f.svc.SetVolume(150)
		if f.svc.Volume() != 100 || f.direct.Volume() != 100 {
			t.Errorf("Volume() = %d, backend = %d, want clamped 100", f.svc.Volume(), f.direct.Volume())
		}
	})
}

func TestService_SeekClamp(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		f.embed.SetDuration(100 * time.Second)
		_ = f.svc.PlayTrack(t.Context(), embedTrack("a"))

		tests := []struct {
			seek time.Duration
			want time.Duration
		}{
			{-5 * time.Second, 0},
			{40 * time.Second, 40 * time.Second},
			{200 * time.Second, 100 * time.Second},
		}
		for _, tt := range tests {
			if err := f.svc.SeekTo(tt.seek); err != nil {
				t.Fatalf("SeekTo(%v) error = %v", tt.seek, err)
			}
			if got := f.svc.Position(); got != tt.want {
				t.Errorf("SeekTo(%v): Position() = %v, want %v", tt.seek, got, tt.want)
			}
		}
		calls := f.embed.SeekCalls()
		if len(calls) != 3 || calls[0] != 0 || calls[2] != 100*time.Second {
			t.Errorf("SeekCalls() = %v", calls)
		}
	})
}

func TestService_SeekIdleIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.svc.SeekTo(10 * time.Second); err != nil {
		t.Fatalf("SeekTo() error = %v", err)
	}
	if f.svc.Position() != 0 {
		t.Errorf("Position() = %v, want 0", f.svc.Position())
	}
}

func TestService_EndAdvancesQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, resolverFunc(func(context.Context, playlist.Track) (playlist.Track, bool) {
			t.Error("resolver should not be consulted with a non-empty queue")
			return playlist.Track{}, false
		}))
		x, a, b := embedTrack("x"), embedTrack("a"), embedTrack("b")
		_ = f.svc.PlayTrack(t.Context(), x)
		f.svc.Queue().Enqueue(a, b)

		if !f.embed.SimulateEnded() {
			t.Fatal("backend should be watched")
		}
		synctest.Wait()

		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(a) {
			t.Errorf("CurrentTrack() = %v, want a", cur)
		}
		if q := f.svc.Queue().Tracks(); len(q) != 1 || !q[0].Is(b) {
			t.Errorf("Queue() = %v, want [b]", q)
		}
		if h := f.svc.History().Tracks(); len(h) != 2 || !h[0].Is(a) || !h[1].Is(x) {
			t.Errorf("History() = %v, want [a x]", h)
		}
		if f.svc.State() != StatePlaying {
			t.Errorf("State() = %v, want Playing", f.svc.State())
		}
	})
}

func TestService_EndAutoplays(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		y := directTrack("y")
		var seen playlist.Track
		f := newFixture(t, resolverFunc(func(_ context.Context, current playlist.Track) (playlist.Track, bool) {
			seen = current
			return y, true
		}))
		x := embedTrack("x")
		_ = f.svc.PlayTrack(t.Context(), x)

		f.embed.SimulateEnded()
		synctest.Wait()

		if !seen.Is(x) {
			t.Errorf("resolver saw %v, want x", seen.ID)
		}
		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(y) {
			t.Errorf("CurrentTrack() = %v, want y", cur)
		}
		if f.svc.ActiveBackend() != player.KindDirect || f.embed.Teardowns() != 1 {
			t.Errorf("ActiveBackend() = %v, embed teardowns = %d", f.svc.ActiveBackend(), f.embed.Teardowns())
		}
	})
}

func TestService_EndedWhileResolving(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gate := make(chan struct{})
		f := newFixture(t, resolverFunc(func(context.Context, playlist.Track) (playlist.Track, bool) {
			<-gate
			return playlist.Track{}, false
		}))
		x := embedTrack("x")
		_ = f.svc.PlayTrack(t.Context(), x)

		f.embed.SimulateEnded()
		synctest.Wait()
		if f.svc.State() != StateEnded {
			t.Errorf("State() while resolving = %v, want Ended", f.svc.State())
		}
		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(x) {
			t.Errorf("ended track should stay current, got %v", cur)
		}

		close(gate)
		synctest.Wait()

		if f.svc.State() != StateIdle {
			t.Errorf("State() = %v, want Idle", f.svc.State())
		}
		if f.svc.CurrentTrack() != nil {
			t.Error("CurrentTrack() should be nil after nothing was found")
		}
		if f.embed.Live() || f.embed.Watched() {
			t.Error("backend should be torn down when idle")
		}
	})
}

func TestService_StaleAutoplayDiscarded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gate := make(chan struct{})
		z := embedTrack("z")
		f := newFixture(t, resolverFunc(func(context.Context, playlist.Track) (playlist.Track, bool) {
			// Ignores cancellation so the generation check has to reject it.
			<-gate
			return z, true
		}))
		_ = f.svc.PlayTrack(t.Context(), embedTrack("x"))
		f.embed.SimulateEnded()
		synctest.Wait()

		u := directTrack("u")
		_ = f.svc.PlayTrack(t.Context(), u)
		close(gate)
		synctest.Wait()

		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(u) {
			t.Errorf("CurrentTrack() = %v, want u", cur)
		}
		for _, tr := range f.embed.LoadCalls() {
			if tr.Is(z) {
				t.Error("stale autoplay result should not be loaded")
			}
		}
	})
}

func TestService_PlayNext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var mu sync.Mutex
		calls := 0
		f := newFixture(t, resolverFunc(func(context.Context, playlist.Track) (playlist.Track, bool) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return playlist.Track{}, false
		}))
		a, b := embedTrack("a"), embedTrack("b")
		_ = f.svc.PlayTrack(t.Context(), a)
		f.svc.Queue().Enqueue(b)

		_ = f.svc.PlayNext(t.Context())
		if cur := f.svc.CurrentTrack(); !cur.Is(b) {
			t.Errorf("CurrentTrack() = %v, want b", cur.ID)
		}

		// Empty queue: autoplay finds nothing and the track keeps playing.
		_ = f.svc.PlayNext(t.Context())
		synctest.Wait()
		mu.Lock()
		if calls != 1 {
			t.Errorf("resolver calls = %d, want 1", calls)
		}
		mu.Unlock()
		if cur := f.svc.CurrentTrack(); cur == nil || !cur.Is(b) || f.svc.State() != StatePlaying {
			t.Errorf("manual skip with nothing found should keep playing b, got %v %v", cur, f.svc.State())
		}
	})
}

func TestService_PlayPrev(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		f.embed.SetDuration(time.Minute)
		a, b := embedTrack("a"), embedTrack("b")

		_ = f.svc.PlayTrack(t.Context(), a)
		// Only one track in history: restart it.
		f.embed.Emit(time.Second)
		_ = f.svc.PlayPrev(t.Context())
		if !f.svc.CurrentTrack().Is(a) || f.svc.Position() != 0 {
			t.Errorf("PlayPrev() with no history should restart a")
		}

		_ = f.svc.PlayTrack(t.Context(), b)
		f.embed.Emit(10 * time.Second)
		_ = f.svc.PlayPrev(t.Context())
		if !f.svc.CurrentTrack().Is(b) || f.svc.Position() != 0 {
			t.Errorf("PlayPrev() past the threshold should restart b")
		}

		f.embed.Emit(time.Second)
		_ = f.svc.PlayPrev(t.Context())
		if !f.svc.CurrentTrack().Is(a) {
			t.Errorf("PlayPrev() = %v, want a", f.svc.CurrentTrack().ID)
		}
	})
}

func TestService_FrequencyStopsOnPause(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		_ = f.svc.PlayTrack(t.Context(), directTrack("a"))

		time.Sleep(3 * f.frames.Interval())
		if f.svc.Frequency() == nil {
			t.Fatal("Frequency() should publish frames while playing direct")
		}

		_ = f.svc.TogglePlay()
		time.Sleep(f.frames.Interval())
		if f.svc.Frequency() != nil {
			t.Error("Frequency() should be nil after pause")
		}
		frames := f.frames.Frames()
		time.Sleep(10 * f.frames.Interval())
		if f.frames.Frames() != frames || f.frames.Running() {
			t.Error("no frames should be scheduled while paused")
		}

		_ = f.svc.TogglePlay()
		time.Sleep(3 * f.frames.Interval())
		if f.frames.Frames() == frames {
			t.Error("frames should resume with playback")
		}
	})
}

func TestService_FrequencyNilForEmbed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		_ = f.svc.PlayTrack(t.Context(), embedTrack("a"))
		time.Sleep(5 * f.frames.Interval())

		if f.frames.Running() || f.svc.Frequency() != nil {
			t.Error("frame loop should not run for the embed backend")
		}
	})
}

func TestService_EndStopsFrames(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		_ = f.svc.PlayTrack(t.Context(), directTrack("a"))
		time.Sleep(2 * f.frames.Interval())

		f.direct.SimulateEnded()
		synctest.Wait()

		if f.frames.Running() || f.svc.Frequency() != nil {
			t.Error("frame loop should stop when the track ends")
		}
		if f.svc.State() != StateIdle {
			t.Errorf("State() = %v, want Idle without a resolver", f.svc.State())
		}
	})
}

func TestService_LoadSupersededBySwitch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		release := f.embed.HoldLoads()
		defer release()

		done := make(chan error, 1)
		go func() { done <- f.svc.PlayTrack(context.Background(), embedTrack("a")) }()
		synctest.Wait()
		if f.svc.State() != StateLoading {
			t.Fatalf("State() = %v, want Loading", f.svc.State())
		}

		b := directTrack("b")
		_ = f.svc.PlayTrack(t.Context(), b)
		if err := <-done; err != nil {
			t.Errorf("superseded PlayTrack() error = %v, want nil", err)
		}
		if cur := f.svc.CurrentTrack(); !cur.Is(b) || f.svc.State() != StatePlaying {
			t.Errorf("current = %v state = %v, want b Playing", cur.ID, f.svc.State())
		}
	})
}

func TestService_Close(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, nil)
		sub := f.svc.Subscribe()
		_ = f.svc.PlayTrack(t.Context(), directTrack("a"))

		if err := f.svc.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if !f.direct.Closed() || !f.embed.Closed() {
			t.Error("Close() should close every backend")
		}
		select {
		case <-sub.Done:
		default:
			t.Error("subscription should be closed")
		}
		if err := f.svc.PlayTrack(t.Context(), directTrack("b")); !errors.Is(err, ErrClosed) {
			t.Errorf("PlayTrack() after Close error = %v, want ErrClosed", err)
		}
		if err := f.svc.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})
}

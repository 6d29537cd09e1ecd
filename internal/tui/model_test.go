package tui

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/model"
	tuitest "github.com/Veraticus/frame-labeler/internal/tui/testing"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	snap engine.SessionSnapshot
	mu   sync.Mutex
}

func (f *fakeSession) Snapshot() engine.SessionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) set(update func(*engine.SessionSnapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(&f.snap)
}

func testFrame() model.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	return model.Frame{Image: img, Width: 32, Height: 24, Seq: 5}
}

func readySnapshot() engine.SessionSnapshot {
	return engine.SessionSnapshot{
		ID:           "session-1",
		Model:        model.ModelInfo{Name: "pets", Labels: []string{"cat", "dog"}},
		State:        engine.StateWaitingFirst,
		ModelReady:   true,
		CaptureReady: true,
		Frame:        testFrame(),
		HasFrame:     true,
	}
}

func newDriver(session SessionView, opts ...Option) *tuitest.Driver {
	return tuitest.NewDriver(New(session, opts...))
}

func shown(d *tuitest.Driver) display.State {
	return d.Model.(Model).Display()
}

func TestModel_Init(t *testing.T) {
	m := New(&fakeSession{})
	assert.NotNil(t, m.Init())
}

func TestModel_LoadingStatus(t *testing.T) {
	session := &fakeSession{snap: engine.SessionSnapshot{State: engine.StateLoading}}
	d := newDriver(session)
	clock := tuitest.NewClock(time.Now())

	cmd := d.Send(tickMsg(clock.Now()))
	assert.NotNil(t, cmd, "ticks reschedule themselves")

	state := shown(d)
	assert.Equal(t, display.StatusLoadingModel, state.Status)
	assert.Equal(t, "Loading model...", state.Slots[0].Label)
	assert.Contains(t, d.Plain(), "Loading model...")
	assert.Contains(t, d.Plain(), "loading model")

	session.set(func(s *engine.SessionSnapshot) { s.ModelReady = true })
	d.Send(tickMsg(clock.Advance(50 * time.Millisecond)))
	assert.Equal(t, display.StatusWaitingCamera, shown(d).Status)
	assert.Contains(t, d.Plain(), "opening camera")
}

func TestModel_ThrottledLabels(t *testing.T) {
	session := &fakeSession{snap: readySnapshot()}
	d := newDriver(session)
	clock := tuitest.NewClock(time.Now())

	d.Send(tickMsg(clock.Now()))
	assert.Equal(t, display.StatusWaitingFirst, shown(d).Status)

	session.set(func(s *engine.SessionSnapshot) {
		s.State = engine.StateClassifying
		s.Results = engine.Snapshot{
			Seq: 1,
			Predictions: model.Predictions{
				{Label: "cat", Confidence: 0.91},
				{Label: "dog", Confidence: 0.05},
			},
		}
		s.Stats = engine.LoopStats{Requests: 1, Successes: 1}
	})

	d.Send(tickMsg(clock.Advance(60 * time.Millisecond)))
	assert.Equal(t, display.StatusWaitingFirst, shown(d).Status, "inside the first window")

	d.Send(tickMsg(clock.Advance(450 * time.Millisecond)))
	state := shown(d)
	require.Equal(t, display.StatusLabels, state.Status)
	assert.Equal(t, display.Slot{Label: "cat", ConfidenceText: "0.91", Confidence: 0.91}, state.Slots[0])
	assert.Equal(t, display.Slot{Label: "dog", ConfidenceText: "0.05", Confidence: 0.05}, state.Slots[1])
	assert.True(t, state.Slots[2].Empty())

	out := d.Plain()
	assert.True(t, tuitest.ContainsInOrder(out, "frame-labeler", "classifying", "pets · 2 labels"))
	assert.True(t, tuitest.ContainsInOrder(out, "cat", "0.91", "dog", "0.05"))
	assert.Contains(t, out, "requests 1 · ok 1")
	assert.Contains(t, out, "refreshes 2", "waiting status, then labels")
	assert.Contains(t, out, "frame #5 32x24")
}

func TestModel_ErrorAndStartupFailure(t *testing.T) {
	session := &fakeSession{snap: readySnapshot()}
	d := newDriver(session)
	clock := tuitest.NewClock(time.Now())
	d.Send(tickMsg(clock.Now()))

	session.set(func(s *engine.SessionSnapshot) {
		s.State = engine.StateError
		s.Results = engine.Snapshot{ErrSeq: 1, Failing: true, Err: common.ErrClassificationFailed}
	})
	d.Send(tickMsg(clock.Advance(10 * time.Millisecond)))
	assert.Equal(t, display.StatusError, shown(d).Status)
	assert.Contains(t, d.Plain(), "retrying")
	assert.Contains(t, d.Plain(), "Classification error")

	failed := &fakeSession{snap: engine.SessionSnapshot{
		State:      engine.StateFailed,
		StartupErr: common.NewStartupError("model", errors.New("metadata.json: 404")),
	}}
	d = newDriver(failed)
	d.Send(tickMsg(clock.Now()))
	assert.Equal(t, display.StatusStartupFailed, shown(d).Status)
	assert.Contains(t, d.Plain(), "✗ model startup failed: metadata.json: 404")
	assert.Contains(t, d.Plain(), "Startup failed")
}

func TestModel_Keys(t *testing.T) {
	d := newDriver(&fakeSession{snap: readySnapshot()})

	m := d.Model.(Model)
	require.True(t, m.renderer.Mirror())
	d.Send(tuitest.KeyPress("m"))
	assert.False(t, d.Model.(Model).renderer.Mirror())

	_, before := d.Model.(Model).canvasSize()
	d.Send(tuitest.KeyPress("s"))
	_, after := d.Model.(Model).canvasSize()
	assert.Equal(t, before+4, after, "hiding the panel gives its rows to the canvas")
	assert.NotContains(t, d.Plain(), "requests")

	d.Send(tuitest.KeyPress("?"))
	assert.True(t, d.Model.(Model).help.ShowAll)
	assert.Contains(t, d.Plain(), "force quit")

	cmd := d.Send(tuitest.KeyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, d.Model.(Model).Quitting())
	assert.Empty(t, d.Output)
}

func TestModel_ForceQuit(t *testing.T) {
	d := newDriver(&fakeSession{})
	cmd := d.Send(tuitest.KeyCtrlC())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Resize(t *testing.T) {
	d := newDriver(&fakeSession{snap: readySnapshot()}, WithSize(40, 12))
	d.Send(tea.WindowSizeMsg{Width: 100, Height: 30})

	m := d.Model.(Model)
	w, h := m.canvasSize()
	assert.Equal(t, 100, w)
	assert.Equal(t, 30-1-4-1, h)
	assert.Equal(t, w, m.canvas.Width())
	assert.Equal(t, h, m.canvas.Height())

	d.Send(tea.WindowSizeMsg{Width: 10, Height: 3})
	_, h = d.Model.(Model).canvasSize()
	assert.Zero(t, h)
	assert.NotPanics(t, func() { _ = d.Model.View() })
}

func TestModel_Options(t *testing.T) {
	cfg := display.DefaultConfig()
	cfg.Slots = 2
	cfg.Messages.LoadingModel = "Warming up"

	d := newDriver(&fakeSession{},
		WithDisplay(cfg),
		WithStats(false),
		WithHelp(false),
		WithTickInterval(10*time.Millisecond),
	)
	d.Send(tickMsg(time.Now()))

	state := shown(d)
	assert.Len(t, state.Slots, 2)
	assert.Equal(t, "Warming up", state.Slots[0].Label)

	lines := strings.Split(d.Plain(), "\n")
	assert.Len(t, lines, 24, "header plus canvas fill the terminal")
}

func TestModel_CanvasShowsFrame(t *testing.T) {
	d := newDriver(&fakeSession{snap: readySnapshot()}, WithSize(20, 12), WithStats(false), WithHelp(false))
	d.Send(tickMsg(time.Now()))

	m := d.Model.(Model)
	top, _ := m.canvas.Pixel(0, 0)
	assert.Equal(t, color.RGBA{R: 200, A: 255}, top)
}

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Stats reports capture counters. Safe to call from any goroutine.
type Stats struct {
	LastFrameAt time.Time
	Source      string
	TargetFPS   float64
	Grabbed     uint64
	Consumed    uint64
	Dropped     uint64
	Errors      uint64
}

// Device is a frame source for the classification engine.
type Device struct {
	src        Source
	frame      *model.Frame
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
	stats      Stats
	cfg        Config
	ready      atomic.Bool
	closeOnce  sync.Once
	mu         sync.Mutex
	consumed   uint64
	seq        uint64
	opened     bool
	grabFailed bool
}

// NewDevice wraps src. Frames are scaled to cfg.Width x cfg.Height.
func NewDevice(src Source, cfg Config) *Device {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultConfig().FPS
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}

	return &Device{
		src:    src,
		cfg:    cfg,
		logger: slog.Default().With("source", src.Name()),
		done:   make(chan struct{}),
		stats: Stats{
			Source:    src.Name(),
			TargetFPS: cfg.FPS,
		},
	}
}

// Open prepares the source and starts grabbing in the background. It
// returns immediately; onReady is called once, from the grab goroutine,
// when the first decodable frame is stored.
func (d *Device) Open(ctx context.Context, onReady func()) error {
	d.mu.Lock()
	if d.opened {
		d.mu.Unlock()
		return fmt.Errorf("capture device %s already opened", d.src.Name())
	}
	d.opened = true
	d.mu.Unlock()

	if err := d.src.Open(ctx); err != nil {
		close(d.done)
		return fmt.Errorf("failed to open %s: %w", d.src.Name(), err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	common.LogDebug("Capture source opened", common.Fields{
		"source": d.src.Name(),
		"fps":    d.cfg.FPS,
		"size":   fmt.Sprintf("%dx%d", d.cfg.Width, d.cfg.Height),
	})
	go d.run(runCtx, onReady)
	return nil
}

func (d *Device) run(ctx context.Context, onReady func()) {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.interval())
	defer ticker.Stop()

	for {
		d.grab(ctx, onReady)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Device) grab(ctx context.Context, onReady func()) {
	img, err := d.src.Grab(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.recordError(err)
		return
	}
	if img == nil || img.Bounds().Empty() {
		d.recordError(errors.New("source returned an empty image"))
		return
	}

	frame := model.Frame{
		Timestamp: time.Now(),
		Image:     d.scale(img),
		Source:    d.src.Name(),
		TraceID:   uuid.NewString(),
		Width:     d.cfg.Width,
		Height:    d.cfg.Height,
	}

	if d.publish(frame) && onReady != nil {
		d.logger.Debug("First frame captured", "resolution", frame.Resolution())
		onReady()
	}
}

// publish stores frame in the mailbox, overwriting an unread one. It
// reports whether this was the first frame.
func (d *Device) publish(frame model.Frame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	frame.Seq = d.seq

	if d.frame != nil && d.frame.Seq > d.consumed {
		d.stats.Dropped++
	}
	d.frame = &frame
	d.stats.Grabbed++
	d.stats.LastFrameAt = frame.Timestamp
	if d.grabFailed {
		d.grabFailed = false
		d.logger.Info("Capture recovered")
	}

	return d.ready.CompareAndSwap(false, true)
}

func (d *Device) recordError(err error) {
	d.mu.Lock()
	d.stats.Errors++
	first := !d.grabFailed
	d.grabFailed = true
	d.mu.Unlock()

	if first {
		d.logger.Warn("Frame grab failed", "error", err)
	} else {
		d.logger.Debug("Frame grab failed", "error", err)
	}
}

func (d *Device) scale(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() == d.cfg.Width && b.Dy() == d.cfg.Height && b.Min == (image.Point{}) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, d.cfg.Width, d.cfg.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Ready reports whether a decodable frame is available.
func (d *Device) Ready() bool {
	return d.ready.Load()
}

// Frame returns the newest frame. It returns common.ErrFrameNotReady until
// the first frame arrives.
func (d *Device) Frame() (model.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frame == nil {
		return model.Frame{}, common.ErrFrameNotReady
	}
	if d.frame.Seq > d.consumed {
		d.consumed = d.frame.Seq
		d.stats.Consumed++
	}
	return *d.frame, nil
}

// Latest returns the newest frame without marking it consumed.
func (d *Device) Latest() (model.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frame == nil {
		return model.Frame{}, common.ErrFrameNotReady
	}
	return *d.frame, nil
}

// Stats returns a copy of the capture counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close stops grabbing and closes the source. Safe to call more than once.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.mu.Lock()
		cancel, opened := d.cancel, d.opened
		d.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if opened {
			<-d.done
		}
		err = d.src.Close()
	})
	return err
}

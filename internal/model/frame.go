package model

import (
	"fmt"
	"image"
	"time"
)

// Frame is a single decoded image captured from a video source.
type Frame struct {
	Timestamp time.Time
	Image     image.Image
	Source    string
	TraceID   string
	Seq       uint64
	Width     int
	Height    int
}

// Resolution returns the frame size as "WxH".
func (f Frame) Resolution() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Decodable reports whether the frame carries a usable image.
func (f Frame) Decodable() bool {
	if f.Image == nil {
		return false
	}
	b := f.Image.Bounds()
	return b.Dx() > 0 && b.Dy() > 0
}

// ModelInfo describes a loaded image classification model.
type ModelInfo struct {
	Name      string   `json:"modelName" yaml:"name"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	Labels    []string `json:"labels" yaml:"labels"`
	ImageSize int      `json:"imageSize,omitempty" yaml:"image_size,omitempty"`
}

// Package viewer implements the lightbox zoom/pan state machine.
package viewer

import (
	"fmt"
	"math"
	"time"
)

// Mode is how the image is fitted to the container.
type Mode string

const (
	// Frame fits the whole image inside the container.
	Frame Mode = "frame"
	// Fill covers the container, cropping overflow.
	Fill Mode = "fill"
	// Zoom is pannable and zoomable.
	Zoom Mode = "zoom"
)

// Label is the human name shown in notices.
func (m Mode) Label() string {
	switch m {
	case Fill:
		return "Fill"
	case Zoom:
		return "Zoom"
	default:
		return "Frame"
	}
}

func (m Mode) next() Mode {
	switch m {
	case Frame:
		return Fill
	case Fill:
		return Zoom
	default:
		return Frame
	}
}

const (
	MinZoom         = 0.5
	MaxZoom         = 5.0
	ZoomStep        = 0.25
	ToggleZoomLevel = 1.5

	DefaultNoticeDuration = 2 * time.Second
)

// Point is a 2D offset in container pixels.
type Point struct {
	X float64
	Y float64
}

// State is a read-only snapshot of the machine.
type State struct {
	ImageID   string
	Mode      Mode
	BaseMode  Mode
	Zoom      float64
	Pan       Point
	IsPanning bool
}

// Notice is a transient mode-change banner.
type Notice struct {
	Text    string
	Seq     uint64
	Expires time.Time
}

type gesture struct {
	pointer  int
	start    Point
	startPan Point
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects the time source used for notices.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithNoticeDuration overrides how long notices stay visible.
func WithNoticeDuration(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.noticeFor = d
		}
	}
}

// Machine holds the viewer state for the displayed image. It is owned by
// the UI event loop and is not safe for concurrent use.
type Machine struct {
	now       func() time.Time
	noticeFor time.Duration

	imageID  string
	mode     Mode
	baseMode Mode
	zoom     float64
	pan      Point
	gesture  *gesture

	width  float64
	height float64

	notice    Notice
	noticeSeq uint64
}

// New returns a machine in frame mode.
func New(opts ...Option) *Machine {
	m := &Machine{
		now:       time.Now,
		noticeFor: DefaultNoticeDuration,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.mode = Frame
	m.baseMode = Frame
	m.zoom = 1
	m.pan = Point{}
	m.gesture = nil
	m.notice = Notice{}
}

// State returns a snapshot.
func (m *Machine) State() State {
	return State{
		ImageID:   m.imageID,
		Mode:      m.mode,
		BaseMode:  m.baseMode,
		Zoom:      m.zoom,
		Pan:       m.pan,
		IsPanning: m.gesture != nil,
	}
}

// SetImage switches the displayed image. A different id resets the machine
// to frame, zoom 1 and pan origin. It reports whether a reset happened.
func (m *Machine) SetImage(id string) bool {
	if id == m.imageID {
		return false
	}
	m.imageID = id
	m.reset()
	return true
}

// SetContainer records the live container size and re-clamps the pan.
func (m *Machine) SetContainer(width, height float64) {
	m.width = math.Max(0, width)
	m.height = math.Max(0, height)
	m.pan = m.clamp(m.pan)
}

// Cycle advances frame -> fill -> zoom -> frame.
func (m *Machine) Cycle() Mode {
	m.enter(m.mode.next(), true)
	return m.mode
}

// ToggleZoom leaves zoom for the last non-zoom mode, or enters zoom at
// ToggleZoomLevel.
func (m *Machine) ToggleZoom() Mode {
	if m.mode == Zoom {
		m.enter(m.baseMode, true)
	} else {
		m.enter(Zoom, true)
	}
	return m.mode
}

// SetMode switches to mode explicitly. Unknown modes are ignored.
func (m *Machine) SetMode(mode Mode) {
	switch mode {
	case Frame, Fill, Zoom:
	default:
		return
	}
	if mode == m.mode {
		return
	}
	m.enter(mode, true)
}

func (m *Machine) enter(mode Mode, announce bool) {
	switch mode {
	case Zoom:
		if m.mode != Zoom {
			m.baseMode = m.mode
		}
		m.mode = Zoom
		m.zoom = ToggleZoomLevel
		m.pan = Point{}
		m.gesture = nil
	default:
		m.mode = mode
		m.baseMode = mode
		m.zoom = 1
		m.pan = Point{}
		m.gesture = nil
	}
	if announce {
		m.announce(fmt.Sprintf("%s mode", mode.Label()))
	}
}

// Wheel applies a scroll delta. Negative deltaY (scroll up) zooms in by
// ZoomStep, positive zooms out. Outside zoom mode the machine switches to
// zoom silently, starting from zoom 1.
func (m *Machine) Wheel(deltaY float64) {
	if deltaY == 0 {
		return
	}
	if m.mode != Zoom {
		m.baseMode = m.mode
		m.mode = Zoom
		m.zoom = 1
		m.pan = Point{}
		m.gesture = nil
	}
	step := ZoomStep
	if deltaY > 0 {
		step = -ZoomStep
	}
	m.zoom = clampZoom(m.zoom + step)
	m.pan = m.clamp(m.pan)
}

// PointerDown starts a pan gesture. Only zoom mode captures the pointer.
func (m *Machine) PointerDown(pointer int, x, y float64) bool {
	if m.mode != Zoom {
		return false
	}
	m.gesture = &gesture{pointer: pointer, start: Point{X: x, Y: y}, startPan: m.pan}
	return true
}

// PointerMove pans while the same pointer is captured.
func (m *Machine) PointerMove(pointer int, x, y float64) {
	g := m.gesture
	if g == nil || g.pointer != pointer || m.mode != Zoom {
		return
	}
	m.pan = m.clamp(Point{
		X: g.startPan.X + (x - g.start.X),
		Y: g.startPan.Y + (y - g.start.Y),
	})
}

// PointerUp ends the gesture for pointer.
func (m *Machine) PointerUp(pointer int) { m.release(pointer) }

// PointerCancel ends the gesture for pointer.
func (m *Machine) PointerCancel(pointer int) { m.release(pointer) }

// PointerLeave ends the gesture for pointer.
func (m *Machine) PointerLeave(pointer int) { m.release(pointer) }

func (m *Machine) release(pointer int) {
	if m.gesture != nil && m.gesture.pointer == pointer {
		m.gesture = nil
	}
}

// PanBy moves the pan offset directly (keyboard panning), zoom mode only.
func (m *Machine) PanBy(dx, dy float64) {
	if m.mode != Zoom {
		return
	}
	m.pan = m.clamp(Point{X: m.pan.X + dx, Y: m.pan.Y + dy})
}

// Notice returns the active notice at now, if any.
func (m *Machine) Notice(now time.Time) (Notice, bool) {
	if m.notice.Seq == 0 || !now.Before(m.notice.Expires) {
		return Notice{}, false
	}
	return m.notice, true
}

// DismissNotice clears the notice only if seq is still the current one.
func (m *Machine) DismissNotice(seq uint64) bool {
	if seq == 0 || m.notice.Seq != seq {
		return false
	}
	m.notice = Notice{}
	return true
}

// NoticeDuration is how long notices stay visible.
func (m *Machine) NoticeDuration() time.Duration {
	return m.noticeFor
}

func (m *Machine) announce(text string) {
	m.noticeSeq++
	m.notice = Notice{
		Text:    text,
		Seq:     m.noticeSeq,
		Expires: m.now().Add(m.noticeFor),
	}
}

func (m *Machine) clamp(p Point) Point {
	if m.mode != Zoom || m.zoom <= 1 {
		return Point{}
	}
	limitX := (m.zoom - 1) * m.width / 2
	limitY := (m.zoom - 1) * m.height / 2
	return Point{
		X: clampFloat(p.X, -limitX, limitX),
		Y: clampFloat(p.Y, -limitY, limitY),
	}
}

func clampZoom(z float64) float64 {
	return clampFloat(z, MinZoom, MaxZoom)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

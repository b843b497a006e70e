package render_target

import (
	"errors"
	"fmt"
	"strings"
)

// fakeAttachment is an in-memory attachment holding one RGBA8 or depth value per pixel.
type fakeAttachment struct {
	backend  *fakeBackend
	label    string
	width    int
	height   int
	samples  uint32
	format   AttachmentFormat
	pixels   []byte
	released bool
}

func (a *fakeAttachment) Label() string            { return a.label }
func (a *fakeAttachment) Width() int               { return a.width }
func (a *fakeAttachment) Height() int              { return a.height }
func (a *fakeAttachment) SampleCount() uint32      { return a.samples }
func (a *fakeAttachment) Format() AttachmentFormat { return a.format }
func (a *fakeAttachment) Handle() any              { return a }

func (a *fakeAttachment) Release() {
	if a.released {
		return
	}
	a.released = true
	a.backend.live--
	a.backend.released++
}

type fakeFramebuffer struct {
	backend      *fakeBackend
	label        string
	color        Attachment
	depthStencil Attachment
	released     bool
}

func (f *fakeFramebuffer) Label() string                      { return f.label }
func (f *fakeFramebuffer) ColorAttachment() Attachment        { return f.color }
func (f *fakeFramebuffer) DepthStencilAttachment() Attachment { return f.depthStencil }

func (f *fakeFramebuffer) Release() {
	if f.released {
		return
	}
	f.released = true
	f.backend.live--
	f.backend.released++
}

// fakeBackend records every GPU object it hands out so tests can detect leaks.
type fakeBackend struct {
	live     int
	created  int
	released int
	blits    int

	// failOn makes any creation whose label contains the key fail.
	failOn string
	// depthSamples overrides the sample count of depth/stencil renderbuffers when non-zero.
	depthSamples uint32
	// textureFormat overrides the format of resolve textures when set.
	textureFormat *AttachmentFormat
}

var _ RenderTargetBackend = &fakeBackend{}

var errInjected = errors.New("injected failure")

func (b *fakeBackend) fail(label string) error {
	if b.failOn != "" && strings.Contains(label, b.failOn) {
		return fmt.Errorf("%s: %w", label, errInjected)
	}
	return nil
}

func (b *fakeBackend) newAttachment(label string, width, height int, samples uint32, format AttachmentFormat) *fakeAttachment {
	b.live++
	b.created++
	return &fakeAttachment{
		backend: b,
		label:   label,
		width:   width,
		height:  height,
		samples: samples,
		format:  format,
		pixels:  make([]byte, width*height*4),
	}
}

func (b *fakeBackend) CreateRenderbuffer(label string, width, height int, samples uint32, format AttachmentFormat) (Attachment, error) {
	if err := b.fail(label); err != nil {
		return nil, err
	}
	if format == FormatDepth24Stencil8 && b.depthSamples != 0 {
		samples = b.depthSamples
	}
	return b.newAttachment(label, width, height, samples, format), nil
}

func (b *fakeBackend) CreateTexture(label string, width, height int, format AttachmentFormat) (Attachment, error) {
	if err := b.fail(label); err != nil {
		return nil, err
	}
	if b.textureFormat != nil {
		format = *b.textureFormat
	}
	return b.newAttachment(label, width, height, 1, format), nil
}

func (b *fakeBackend) CreateFramebuffer(label string, color, depthStencil Attachment) (Framebuffer, error) {
	if err := b.fail(label); err != nil {
		return nil, err
	}
	b.live++
	b.created++
	return &fakeFramebuffer{backend: b, label: label, color: color, depthStencil: depthStencil}, nil
}

func (b *fakeBackend) Blit(src, dst Framebuffer, width, height int) error {
	from := src.ColorAttachment().(*fakeAttachment)
	to := dst.ColorAttachment().(*fakeAttachment)
	if from.released || to.released {
		return errors.New("blit on released attachment")
	}
	if from.width != width || from.height != height || to.width != width || to.height != height {
		return fmt.Errorf("blit rectangle %dx%d does not cover both attachments", width, height)
	}
	copy(to.pixels, from.pixels)
	b.blits++
	return nil
}

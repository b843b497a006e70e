// Package render_target manages the off-screen multisampled colour and depth target the scene is drawn into,
// together with the single-sampled texture it is resolved into for compositing.
package render_target

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// RecreateCallback is invoked after a successful Recreate, outside the target's lock.
type RecreateCallback func(target RenderTarget)

// renderTarget is the implementation of the RenderTarget interface.
// All five handles are either set together or nil together.
type renderTarget struct {
	mu *sync.Mutex

	label       string
	width       int
	height      int
	sampleCount SampleCount
	// sampleCounts is fixed at construction; nil accepts every valid count.
	sampleCounts []SampleCount

	backend RenderTargetBackend
	logger  *slog.Logger

	msaaFramebuffer    Framebuffer
	msaaColor          Attachment
	msaaDepthStencil   Attachment
	resolveFramebuffer Framebuffer
	resolveTexture     Attachment

	onRecreate []RecreateCallback
}

// RenderTarget defines the interface for the multisample render target.
//
// The target owns five GPU objects: the multisample framebuffer, its colour and depth/stencil
// attachments, the resolve framebuffer and the resolve texture. Other components may sample the
// resolve texture but must never release it.
type RenderTarget interface {
	// Label returns the debug label used for the target's GPU objects.
	Label() string

	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// SampleCount returns the configured sample count.
	SampleCount() SampleCount

	// Supports reports whether samples is valid and can be allocated on the target's device.
	Supports(samples SampleCount) bool

	// SampleCounts returns the counts the target accepts, in ascending order.
	SampleCounts() []SampleCount

	// Live reports whether all GPU resources are allocated.
	Live() bool

	// Create allocates the multisample framebuffer, its attachments, the resolve texture and the resolve framebuffer.
	// A live target is destroyed first. On failure every partially created resource is released and the target is left empty.
	//
	// Returns:
	//   - error: an error wrapping ErrFramebufferIncomplete, ErrInvalidDimensions, ErrUnsupportedSampleCount
	//     or a backend failure, or nil on success
	Create() error

	// Destroy releases every GPU resource that is present and resets all handles. Safe to call repeatedly.
	Destroy()

	// Recreate destroys the target and creates it again with a new sample count at the same dimensions.
	// Invalid and unsupported counts are rejected without touching the current resources.
	// After any other failure the target is empty.
	//
	// Parameters:
	//   - samples: the new sample count
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidSampleCount, ErrUnsupportedSampleCount or the Create failure, or nil on success
	Recreate(samples SampleCount) error

	// Resolve copies the multisample colour attachment into the resolve texture over the full target rectangle.
	// Call it after the scene pass has been submitted and before the resolve texture is sampled.
	//
	// Returns:
	//   - error: ErrNotLive if the target is empty, or a wrapped backend failure
	Resolve() error

	// MultisampleFramebuffer returns the framebuffer scene passes render into, or nil when empty.
	MultisampleFramebuffer() Framebuffer

	// ResolveFramebuffer returns the single-sampled framebuffer wrapping the resolve texture, or nil when empty.
	ResolveFramebuffer() Framebuffer

	// ColorAttachment returns the multisample colour attachment, or nil when empty.
	ColorAttachment() Attachment

	// DepthStencilAttachment returns the multisample depth/stencil attachment, or nil when empty.
	DepthStencilAttachment() Attachment

	// ResolveTexture returns the single-sampled colour texture, or nil when empty.
	ResolveTexture() Attachment

	// OnRecreate registers a callback run after every successful Recreate.
	//
	// Parameters:
	//   - cb: the callback to register
	OnRecreate(cb RecreateCallback)
}

var _ RenderTarget = &renderTarget{}

// NewRenderTarget creates an empty RenderTarget. Call Create to allocate its GPU resources.
//
// Parameters:
//   - backend: the backend that creates and operates on the GPU objects
//   - width: target width in pixels
//   - height: target height in pixels
//   - options: functional options for configuring the target
//
// Returns:
//   - RenderTarget: the newly created, empty RenderTarget
func NewRenderTarget(backend RenderTargetBackend, width, height int, options ...RenderTargetBuilderOption) RenderTarget {
	r := &renderTarget{
		mu:          &sync.Mutex{},
		label:       "MSAA Target",
		width:       width,
		height:      height,
		sampleCount: MSAA4x,
		backend:     backend,
		logger:      slog.Default(),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

func (r *renderTarget) Label() string {
	return r.label
}

func (r *renderTarget) Width() int {
	return r.width
}

func (r *renderTarget) Height() int {
	return r.height
}

func (r *renderTarget) SampleCount() SampleCount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampleCount
}

func (r *renderTarget) Supports(samples SampleCount) bool {
	return samples.Valid() && (r.sampleCounts == nil || slices.Contains(r.sampleCounts, samples))
}

func (r *renderTarget) SampleCounts() []SampleCount {
	if r.sampleCounts == nil {
		return slices.Clone(SupportedSampleCounts)
	}
	return slices.Clone(r.sampleCounts)
}

func (r *renderTarget) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live()
}

func (r *renderTarget) Create() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create()
}

func (r *renderTarget) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroy()
}

func (r *renderTarget) Recreate(samples SampleCount) error {
	if !samples.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSampleCount, samples)
	}
	if !r.Supports(samples) {
		return r.unsupported(samples)
	}

	r.mu.Lock()
	r.sampleCount = samples
	r.destroy()
	err := r.create()
	callbacks := append([]RecreateCallback(nil), r.onRecreate...)
	r.mu.Unlock()

	if err != nil {
		return err
	}

	r.logger.Info(fmt.Sprintf("Recreated MSAA FBO with %d samples", int(samples)))
	for _, cb := range callbacks {
		cb(r)
	}
	return nil
}

func (r *renderTarget) Resolve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.live() {
		return ErrNotLive
	}

	if err := r.backend.Blit(r.msaaFramebuffer, r.resolveFramebuffer, r.width, r.height); err != nil {
		return fmt.Errorf("failed to resolve %s: %w", r.label, err)
	}
	return nil
}

func (r *renderTarget) MultisampleFramebuffer() Framebuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msaaFramebuffer
}

func (r *renderTarget) ResolveFramebuffer() Framebuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveFramebuffer
}

func (r *renderTarget) ColorAttachment() Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msaaColor
}

func (r *renderTarget) DepthStencilAttachment() Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msaaDepthStencil
}

func (r *renderTarget) ResolveTexture() Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveTexture
}

func (r *renderTarget) OnRecreate(cb RecreateCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRecreate = append(r.onRecreate, cb)
}

// live must be called with mu held.
func (r *renderTarget) live() bool {
	return r.msaaFramebuffer != nil &&
		r.msaaColor != nil &&
		r.msaaDepthStencil != nil &&
		r.resolveFramebuffer != nil &&
		r.resolveTexture != nil
}

// create must be called with mu held.
func (r *renderTarget) create() (err error) {
	r.destroy()

	if r.width <= 0 || r.height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, r.width, r.height)
	}
	if !r.Supports(r.sampleCount) {
		return r.unsupported(r.sampleCount)
	}

	defer func() {
		if err != nil {
			r.destroy()
		}
	}()

	samples := r.sampleCount.GPUCount()

	if r.msaaColor, err = r.backend.CreateRenderbuffer(r.label+" MSAA Color", r.width, r.height, samples, FormatRGBA8); err != nil {
		return fmt.Errorf("failed to create msaa color attachment: %w", err)
	}
	if r.msaaDepthStencil, err = r.backend.CreateRenderbuffer(r.label+" MSAA Depth Stencil", r.width, r.height, samples, FormatDepth24Stencil8); err != nil {
		return fmt.Errorf("failed to create msaa depth/stencil attachment: %w", err)
	}
	if r.msaaFramebuffer, err = r.backend.CreateFramebuffer(r.label+" MSAA Framebuffer", r.msaaColor, r.msaaDepthStencil); err != nil {
		return fmt.Errorf("failed to create msaa framebuffer: %w", err)
	}
	if err = checkFramebuffer(r.msaaFramebuffer, true); err != nil {
		r.logger.Error("msaa framebuffer incomplete", "target", r.label, "err", err)
		return fmt.Errorf("msaa framebuffer: %w", err)
	}

	if r.resolveTexture, err = r.backend.CreateTexture(r.label+" Resolve Texture", r.width, r.height, FormatRGBA8); err != nil {
		return fmt.Errorf("failed to create resolve texture: %w", err)
	}
	if r.resolveFramebuffer, err = r.backend.CreateFramebuffer(r.label+" Resolve Framebuffer", r.resolveTexture, nil); err != nil {
		return fmt.Errorf("failed to create resolve framebuffer: %w", err)
	}
	if err = checkFramebuffer(r.resolveFramebuffer, false); err == nil {
		err = checkResolvePair(r.msaaColor, r.resolveTexture)
	}
	if err != nil {
		r.logger.Error("resolve framebuffer incomplete", "target", r.label, "err", err)
		return fmt.Errorf("resolve framebuffer: %w", err)
	}

	if !r.live() {
		return errors.New("backend returned a nil handle")
	}

	return nil
}

func (r *renderTarget) unsupported(samples SampleCount) error {
	return fmt.Errorf("%w: %d (supported: %s)", ErrUnsupportedSampleCount, int(samples), FormatSampleCounts(r.SampleCounts()))
}

// destroy must be called with mu held.
func (r *renderTarget) destroy() {
	if r.msaaFramebuffer != nil {
		r.msaaFramebuffer.Release()
		r.msaaFramebuffer = nil
	}
	if r.msaaColor != nil {
		r.msaaColor.Release()
		r.msaaColor = nil
	}
	if r.msaaDepthStencil != nil {
		r.msaaDepthStencil.Release()
		r.msaaDepthStencil = nil
	}
	if r.resolveFramebuffer != nil {
		r.resolveFramebuffer.Release()
		r.resolveFramebuffer = nil
	}
	if r.resolveTexture != nil {
		r.resolveTexture.Release()
		r.resolveTexture = nil
	}
}

// checkFramebuffer applies the completeness rules: a colour-renderable colour attachment, and a depth-renderable
// depth/stencil attachment with matching size and sample count when one is required or present.
func checkFramebuffer(fb Framebuffer, requireDepth bool) error {
	if fb == nil {
		return fmt.Errorf("%w: no framebuffer", ErrFramebufferIncomplete)
	}

	color := fb.ColorAttachment()
	if color == nil {
		return fmt.Errorf("%w: missing color attachment", ErrFramebufferIncomplete)
	}
	if !color.Format().ColorRenderable() {
		return fmt.Errorf("%w: color attachment format %s is not color-renderable", ErrFramebufferIncomplete, color.Format())
	}

	depth := fb.DepthStencilAttachment()
	if depth == nil {
		if requireDepth {
			return fmt.Errorf("%w: missing depth/stencil attachment", ErrFramebufferIncomplete)
		}
		return nil
	}
	if !depth.Format().DepthRenderable() {
		return fmt.Errorf("%w: depth attachment format %s is not depth-renderable", ErrFramebufferIncomplete, depth.Format())
	}
	if depth.Width() != color.Width() || depth.Height() != color.Height() {
		return fmt.Errorf("%w: attachment sizes differ (%dx%d vs %dx%d)", ErrFramebufferIncomplete,
			color.Width(), color.Height(), depth.Width(), depth.Height())
	}
	if depth.SampleCount() != color.SampleCount() {
		return fmt.Errorf("%w: attachment sample counts differ (%d vs %d)", ErrFramebufferIncomplete,
			color.SampleCount(), depth.SampleCount())
	}
	return nil
}

// checkResolvePair verifies the resolve texture can receive the multisample colour attachment unchanged.
func checkResolvePair(src, dst Attachment) error {
	if dst.SampleCount() != 1 {
		return fmt.Errorf("%w: resolve texture is multisampled (%d)", ErrFramebufferIncomplete, dst.SampleCount())
	}
	if src.Format() != dst.Format() {
		return fmt.Errorf("%w: resolve format %s does not match %s", ErrFramebufferIncomplete, dst.Format(), src.Format())
	}
	if src.Width() != dst.Width() || src.Height() != dst.Height() {
		return fmt.Errorf("%w: resolve size %dx%d does not match %dx%d", ErrFramebufferIncomplete,
			dst.Width(), dst.Height(), src.Width(), src.Height())
	}
	return nil
}

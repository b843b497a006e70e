package render_target

import "errors"

var (
	// ErrFramebufferIncomplete is returned when a framebuffer's attachments cannot be rendered to together.
	ErrFramebufferIncomplete = errors.New("framebuffer incomplete")

	// ErrInvalidSampleCount is returned for sample counts outside SupportedSampleCounts.
	ErrInvalidSampleCount = errors.New("invalid sample count")

	// ErrUnsupportedSampleCount is returned for valid sample counts the device cannot allocate.
	ErrUnsupportedSampleCount = errors.New("sample count not supported by the device")

	// ErrInvalidDimensions is returned when a target is created with a non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid render target dimensions")

	// ErrNotLive is returned when an operation needs GPU resources but the target is empty.
	ErrNotLive = errors.New("render target is not live")
)

// AttachmentFormat identifies the pixel format of a framebuffer attachment.
type AttachmentFormat int

const (
	// FormatRGBA8 is 8 bits per channel RGBA colour.
	FormatRGBA8 AttachmentFormat = iota

	// FormatDepth24Stencil8 is combined 24-bit depth and 8-bit stencil.
	FormatDepth24Stencil8
)

// ColorRenderable reports whether the format may be used as a colour attachment.
func (f AttachmentFormat) ColorRenderable() bool {
	return f == FormatRGBA8
}

// DepthRenderable reports whether the format may be used as a depth/stencil attachment.
func (f AttachmentFormat) DepthRenderable() bool {
	return f == FormatDepth24Stencil8
}

func (f AttachmentFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatDepth24Stencil8:
		return "Depth24Stencil8"
	}
	return "Unknown"
}

// Attachment is a GPU image that can be attached to a framebuffer.
// Renderbuffers are render-only; textures can also be sampled.
type Attachment interface {
	// Label returns the debug label given at creation.
	Label() string

	// Width returns the attachment width in pixels.
	Width() int

	// Height returns the attachment height in pixels.
	Height() int

	// SampleCount returns the GPU sample count (1 for single-sampled attachments).
	SampleCount() uint32

	// Format returns the attachment's pixel format.
	Format() AttachmentFormat

	// Handle returns the backend object behind the attachment.
	// Note: The caller is responsible for type asserting the returned value for the backend in use.
	//
	// Returns:
	//   - any: the backend-specific handle, WGPUHandles for the WGPU backend
	Handle() any

	// Release frees the GPU resources. Calling it more than once is a no-op.
	Release()
}

// Framebuffer groups a colour attachment with an optional depth/stencil attachment.
// Releasing a Framebuffer does not release its attachments.
type Framebuffer interface {
	// Label returns the debug label given at creation.
	Label() string

	// ColorAttachment returns the colour attachment.
	ColorAttachment() Attachment

	// DepthStencilAttachment returns the depth/stencil attachment, or nil if the framebuffer has none.
	DepthStencilAttachment() Attachment

	// Release frees the framebuffer object. Calling it more than once is a no-op.
	Release()
}

// RenderTargetBackend creates and operates on the GPU objects owned by a RenderTarget.
type RenderTargetBackend interface {
	// CreateRenderbuffer creates a render-only attachment.
	//
	// Parameters:
	//   - label: debug label for the GPU object
	//   - width: width in pixels
	//   - height: height in pixels
	//   - samples: GPU sample count, 1 for single-sampled
	//   - format: the pixel format
	//
	// Returns:
	//   - Attachment: the created renderbuffer
	//   - error: an error if the GPU object could not be created
	CreateRenderbuffer(label string, width, height int, samples uint32, format AttachmentFormat) (Attachment, error)

	// CreateTexture creates a single-sampled, linearly filtered attachment without mipmaps that can be sampled by shaders.
	//
	// Parameters:
	//   - label: debug label for the GPU object
	//   - width: width in pixels
	//   - height: height in pixels
	//   - format: the pixel format
	//
	// Returns:
	//   - Attachment: the created texture
	//   - error: an error if the GPU object could not be created
	CreateTexture(label string, width, height int, format AttachmentFormat) (Attachment, error)

	// CreateFramebuffer groups attachments into a framebuffer. Completeness is checked by the caller.
	//
	// Parameters:
	//   - label: debug label for the framebuffer
	//   - color: the colour attachment
	//   - depthStencil: the depth/stencil attachment, may be nil
	//
	// Returns:
	//   - Framebuffer: the created framebuffer
	//   - error: an error if the framebuffer could not be created
	CreateFramebuffer(label string, color, depthStencil Attachment) (Framebuffer, error)

	// Blit copies the colour contents of src into dst over a width x height rectangle with linear filtering,
	// resolving samples when src is multisampled. The work is submitted before Blit returns.
	//
	// Parameters:
	//   - src: the source framebuffer
	//   - dst: the destination framebuffer
	//   - width: rectangle width in pixels
	//   - height: rectangle height in pixels
	//
	// Returns:
	//   - error: an error if the copy could not be encoded or submitted
	Blit(src, dst Framebuffer, width, height int) error
}

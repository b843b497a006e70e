package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProvider(t *testing.T) {
	view := &wgpu.TextureView{}
	sampler := &wgpu.Sampler{}
	textureSlot := Slot{Group: 0, Binding: 0}
	samplerSlot := Slot{Group: 0, Binding: 1}

	p := NewBindGroupProvider("Composite",
		WithBorrowedTextureView(textureSlot, view),
		WithBorrowedSampler(samplerSlot, sampler),
		WithVertexCount(6),
	)

	if p.Label() != "Composite" {
		t.Errorf("Label() = %q, want %q", p.Label(), "Composite")
	}
	if p.TextureView(textureSlot) != view || !p.Borrowed(textureSlot) {
		t.Errorf("TextureView()/Borrowed() = %v/%v, want view/true", p.TextureView(textureSlot), p.Borrowed(textureSlot))
	}
	if p.Sampler(samplerSlot) != sampler || !p.Borrowed(samplerSlot) {
		t.Errorf("Sampler()/Borrowed() = %v/%v, want sampler/true", p.Sampler(samplerSlot), p.Borrowed(samplerSlot))
	}
	if p.VertexCount() != 6 || p.IndexCount() != 0 {
		t.Errorf("VertexCount()/IndexCount() = %d/%d, want 6/0", p.VertexCount(), p.IndexCount())
	}
}

func TestReleaseSkipsBorrowed(t *testing.T) {
	slot := Slot{Group: 1, Binding: 0}
	p := NewBindGroupProvider("Skybox")
	p.BorrowTextureView(slot, &wgpu.TextureView{})
	p.SetSampler(Slot{Group: 1, Binding: 1}, &wgpu.Sampler{}, false)

	// zero-value handles would fault if released
	p.Release()

	if p.TextureView(slot) != nil {
		t.Errorf("TextureView() after Release = %v, want nil", p.TextureView(slot))
	}
	if p.Borrowed(slot) {
		t.Errorf("Borrowed() after Release = true, want false")
	}
	p.Release()
}

func TestSetSamplerOwnership(t *testing.T) {
	slot := Slot{Group: 0, Binding: 1}
	p := NewBindGroupProvider("Overlay")

	p.SetSampler(slot, &wgpu.Sampler{}, false)
	if !p.Borrowed(slot) {
		t.Errorf("Borrowed() = false, want true")
	}
	p.SetSampler(slot, nil, true)
	if p.Borrowed(slot) {
		t.Errorf("Borrowed() = true after owned sampler, want false")
	}
}

func TestGroups(t *testing.T) {
	p := NewBindGroupProvider("Skybox")
	p.SetBindGroup(1, &wgpu.BindGroup{})
	p.SetBindGroup(0, &wgpu.BindGroup{})
	p.SetBindGroup(2, nil)

	got := p.Groups()
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("Groups() = %v, want [0 1]", got)
	}
}

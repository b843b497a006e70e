package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-msaa/engine/console"
	"github.com/Carmen-Shannon/oxy-msaa/engine/renderer/render_target"
)

func TestMSAACommand(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantErr     error
		wantSamples render_target.SampleCount
		wantGPU     uint32
		wantLog     string
	}{
		{"off", "t_msaa 0", nil, render_target.MSAAOff, 1, "Recreated MSAA FBO with 0 samples"},
		{"eight", "t_msaa 8", nil, render_target.MSAA8x, 8, "Recreated MSAA FBO with 8 samples"},
		{"unsupported", "t_msaa 3", console.ErrInvalidArgument, render_target.MSAA4x, 4, "invalid msaa"},
		{"not a number", "t_msaa four", console.ErrInvalidArgument, render_target.MSAA4x, 4, "invalid msaa"},
		{"missing", "t_msaa", console.ErrInvalidArgument, render_target.MSAA4x, 4, "invalid msaa"},
		{"extra", "t_msaa 2 4", console.ErrInvalidArgument, render_target.MSAA4x, 4, "invalid msaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeTargetBackend{}
			c, buf := newTestContext(t, &fakeRenderer{}, backend)

			err := c.Console.Execute(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
			if got := c.Target.SampleCount(); got != tt.wantSamples {
				t.Errorf("SampleCount() = %v, want %v", got, tt.wantSamples)
			}
			if !c.Target.Live() {
				t.Fatalf("Live() = false, want true")
			}
			if got := c.Target.ColorAttachment().SampleCount(); got != tt.wantGPU {
				t.Errorf("ColorAttachment().SampleCount() = %d, want %d", got, tt.wantGPU)
			}
			if got := c.Target.DepthStencilAttachment().SampleCount(); got != tt.wantGPU {
				t.Errorf("DepthStencilAttachment().SampleCount() = %d, want %d", got, tt.wantGPU)
			}
			if backend.live != 5 {
				t.Errorf("live handles = %d, want 5", backend.live)
			}
			if !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("log %q does not contain %q", buf.String(), tt.wantLog)
			}
		})
	}
}

func TestMSAACommandDeviceLimits(t *testing.T) {
	tests := []struct {
		line        string
		wantErr     error
		wantSamples render_target.SampleCount
		wantLog     string
	}{
		{"t_msaa 8", render_target.ErrUnsupportedSampleCount, render_target.MSAA4x, "msaa 8 not supported (supported: 0, 4)"},
		{"t_msaa 2", render_target.ErrUnsupportedSampleCount, render_target.MSAA4x, "msaa 2 not supported (supported: 0, 4)"},
		{"t_msaa 0", nil, render_target.MSAAOff, "Recreated MSAA FBO with 0 samples"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := &fakeRenderer{}
			c, buf := newTestContext(t, r, &fakeTargetBackend{},
				render_target.WithSupportedSampleCounts(render_target.MSAAOff, render_target.MSAA4x))
			before := c.Target.ColorAttachment()

			err := c.Console.Execute(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
			if got := c.Target.SampleCount(); got != tt.wantSamples {
				t.Errorf("SampleCount() = %v, want %v", got, tt.wantSamples)
			}
			if tt.wantErr != nil {
				if c.Target.ColorAttachment() != before || len(r.groups) != 0 {
					t.Errorf("target was recreated for a rejected count")
				}
				if strings.Contains(buf.String(), "msaa recreate failed") {
					t.Errorf("log %q reports a recreate for a rejected count", buf.String())
				}
			}
			if !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("log %q does not contain %q", buf.String(), tt.wantLog)
			}
		})
	}
}

func TestTargetSampleCount(t *testing.T) {
	limited := []render_target.SampleCount{render_target.MSAAOff, render_target.MSAA4x}
	tests := []struct {
		name      string
		requested render_target.SampleCount
		supported []render_target.SampleCount
		want      render_target.SampleCount
		wantWarn  bool
	}{
		{"supported", render_target.MSAAOff, limited, render_target.MSAAOff, false},
		{"eight on limited device", render_target.MSAA8x, limited, render_target.MSAA4x, true},
		{"two on limited device", render_target.MSAA2x, limited, render_target.MSAA4x, true},
		{"eight on full device", render_target.MSAA8x, render_target.SupportedSampleCounts, render_target.MSAA8x, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newTestLogger()
			if got := targetSampleCount(log, tt.requested, tt.supported); got != tt.want {
				t.Errorf("targetSampleCount() = %v, want %v", got, tt.want)
			}
			if warned := strings.Contains(buf.String(), "not supported by this adapter"); warned != tt.wantWarn {
				t.Errorf("warned = %v, want %v (log %q)", warned, tt.wantWarn, buf.String())
			}
		})
	}
}

func TestMSAACommandRebindsComposite(t *testing.T) {
	r := &fakeRenderer{}
	c, _ := newTestContext(t, r, &fakeTargetBackend{})
	before := c.composite()

	if err := c.Console.Execute("t_msaa 2"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	after := c.composite()
	if after == nil || after == before {
		t.Fatalf("composite = %v, want a new provider", after)
	}
	if got := after.TextureView(compositeTextureSlot); got == nil {
		t.Errorf("TextureView() = nil, want the new resolve view")
	}
	if len(r.groups) != 1 || r.groups[0] != "composite/screen/0" {
		t.Errorf("bind groups = %v, want [composite/screen/0]", r.groups)
	}
}

func TestMSAACommandRestoresOnFailure(t *testing.T) {
	backend := &fakeTargetBackend{}
	c, buf := newTestContext(t, &fakeRenderer{}, backend)
	backend.failSamples = 8

	err := c.Console.Execute("t_msaa 8")
	if !errors.Is(err, errInjected) {
		t.Errorf("Execute() error = %v, want %v", err, errInjected)
	}
	if got := c.Target.SampleCount(); got != render_target.MSAA4x {
		t.Errorf("SampleCount() = %v, want %v", got, render_target.MSAA4x)
	}
	if !c.Target.Live() {
		t.Errorf("Live() = false, want true")
	}
	for _, want := range []string{"msaa recreate failed", "Restored MSAA FBO with 4 samples"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q does not contain %q", buf.String(), want)
		}
	}
}

func TestMSAACommandRestoreFailure(t *testing.T) {
	backend := &fakeTargetBackend{}
	c, buf := newTestContext(t, &fakeRenderer{}, backend)
	backend.failOn = "MSAA Color"

	err := c.Console.Execute("t_msaa 2")
	if !errors.Is(err, errInjected) {
		t.Errorf("Execute() error = %v, want %v", err, errInjected)
	}
	if c.Target.Live() {
		t.Errorf("Live() = true, want false")
	}
	if backend.live != 0 {
		t.Errorf("live handles = %d, want 0", backend.live)
	}
	if !strings.Contains(buf.String(), "msaa restore failed") {
		t.Errorf("log %q does not contain msaa restore failed", buf.String())
	}
}

func TestInfoAndHelp(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"help", []string{HelpText}},
		{"info", []string{"GPU: Fake GPU", "Driver: fake 1.0", "Backend: Vulkan", "Adapter type: DiscreteGPU"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, buf := newTestContext(t, &fakeRenderer{}, &fakeTargetBackend{})
			if err := c.Console.Execute(tt.line); err != nil {
				t.Fatalf("Execute(%q) error = %v", tt.line, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("log %q does not contain %q", buf.String(), want)
				}
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	c, buf := newTestContext(t, &fakeRenderer{}, &fakeTargetBackend{})

	if err := c.Console.Execute("t_fog 1"); !errors.Is(err, console.ErrUnknownCommand) {
		t.Errorf("Execute() error = %v, want %v", err, console.ErrUnknownCommand)
	}
	if !strings.Contains(buf.String(), "unknown cmd: t_fog") {
		t.Errorf("log %q does not contain unknown cmd", buf.String())
	}
	if got := c.Target.SampleCount(); got != render_target.MSAA4x {
		t.Errorf("SampleCount() = %v, want %v", got, render_target.MSAA4x)
	}
}

package diagnostics

import (
	"context"
	"fmt"
	"runtime"
	"runtime/trace"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
	"github.com/hugo-lorenzo-mato/leakspec/internal/nss"
)

// Capability names reported by Probe.
const (
	CapDescriptors = "descriptors"
	CapReaping     = "reaping"
	CapChildren    = "children"
	CapNameService = "name_service"
	CapExecTracer  = "exec_tracer"
)

// Capability describes whether one OS or runtime mechanism is usable.
type Capability struct {
	Name      string `json:"name" yaml:"name"`
	Available bool   `json:"available" yaml:"available"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Err returns a capability error when c is unavailable, nil otherwise.
func (c Capability) Err() error {
	if c.Available {
		return nil
	}
	return core.ErrCapability(c.Name, c.Detail)
}

// Probe checks every capability the leak checker relies on. Probes run
// concurrently and never fail; an unavailable capability is reported with a
// detail string.
func Probe(ctx context.Context) []Capability {
	probes := []func(context.Context) Capability{
		probeDescriptors,
		probeReaping,
		probeChildren,
		probeNameService,
		probeExecTracer,
	}
	result := make([]Capability, len(probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		g.Go(func() error {
			result[i] = probe(gctx)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func probeDescriptors(context.Context) Capability {
	c := Capability{Name: CapDescriptors, Available: DescriptorsAvailable()}
	if !c.Available {
		c.Detail = "no descriptor directory on " + runtime.GOOS
		return c
	}
	open, limit := CountFDs()
	c.Detail = fdDetail(open, limit)
	return c
}

func probeReaping(context.Context) Capability {
	c := Capability{Name: CapReaping, Available: ReapAvailable()}
	if !c.Available {
		c.Detail = "wait4 is not available on " + runtime.GOOS
	}
	return c
}

func probeChildren(ctx context.Context) Capability {
	children, err := RunningChildren(ctx)
	if err != nil {
		return Capability{Name: CapChildren, Detail: err.Error()}
	}
	return Capability{Name: CapChildren, Available: true, Detail: childDetail(len(children))}
}

func probeNameService(context.Context) Capability {
	c := Capability{Name: CapNameService, Available: nss.Available()}
	if !c.Available {
		c.Detail = "__nss_configure_lookup not found (not glibc, or built without cgo)"
	}
	return c
}

func probeExecTracer(context.Context) Capability {
	c := Capability{Name: CapExecTracer, Available: true}
	if trace.IsEnabled() {
		c.Detail = "currently running"
	}
	return c
}

func fdDetail(open, limit int) string {
	if limit <= 0 {
		return fmt.Sprintf("%d open", open)
	}
	return fmt.Sprintf("%d open, limit %d", open, limit)
}

func childDetail(n int) string {
	if n == 1 {
		return "1 running child"
	}
	return fmt.Sprintf("%d running children", n)
}

package leakcheck

import (
	"fmt"
	"runtime/trace"
	"slices"
	"sort"
	"strings"

	"go.uber.org/goleak"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
	"github.com/hugo-lorenzo-mato/leakspec/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/leakspec/internal/procstate"
	"github.com/hugo-lorenzo-mato/leakspec/internal/resource"
)

// checkDescriptors compares descriptor numbers. A number open on both sides
// but now referring to a different file was closed and reissued, and is
// reported as both closed and leaked.
func (c *Checker) checkDescriptors(before, after diagnostics.ResourceSnapshot) {
	reused := reusedDescriptors(before.Descriptors, before.DescriptorIDs, after.DescriptorIDs)
	for _, fd := range union(subtract(before.Descriptors, after.Descriptors), reused) {
		c.leak(core.CheckDescriptors, fmt.Sprintf("Closed file descriptor: %d", fd))
	}

	leaked := union(subtract(after.Descriptors, before.Descriptors), reused)
	if len(leaked) == 0 {
		return
	}

	byFD := make(map[int][]resource.HandleInfo)
	var handles []resource.HandleInfo
	if reg := c.opts.Sources.Registry; reg != nil {
		handles = reg.Handles()
	}
	for _, h := range handles {
		byFD[h.FD] = append(byFD[h.FD], h)
	}

	for _, fd := range leaked {
		var b strings.Builder
		fmt.Fprintf(&b, "Leaked file descriptor: %d", fd)
		if owners := byFD[fd]; len(owners) > 0 {
			descs := make([]string, 0, len(owners))
			for _, h := range owners {
				s := h.Desc
				if !h.AutoClose {
					s += "(not-autoclose)"
				}
				descs = append(descs, s)
			}
			sort.Strings(descs)
			b.WriteString(" :")
			for _, s := range descs {
				b.WriteString(" " + s)
			}
		} else if target := diagnostics.DescribeDescriptor(fd); target != "" {
			b.WriteString(" : " + target)
		}
		c.leak(core.CheckDescriptors, b.String())
	}

	fds := make([]int, 0, len(byFD))
	for fd := range byFD {
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	for _, fd := range fds {
		owners := byFD[fd]
		autoClosing := 0
		for _, h := range owners {
			if h.AutoClose {
				autoClosing++
			}
		}
		if autoClosing <= 1 {
			continue
		}
		descs := make([]string, 0, len(owners))
		for _, h := range owners {
			s := " " + h.Desc
			if h.AutoClose {
				s += "(autoclose)"
			}
			descs = append(descs, s)
		}
		sort.Strings(descs)
		c.leak(core.CheckDescriptors, "Multiple autoclose IO objects for a file descriptor:"+strings.Join(descs, ""))
	}
}

func (c *Checker) checkTempFiles(before, after []*resource.TempFile) {
	known := make(map[uint64]bool, len(before))
	for _, t := range before {
		known[t.ID()] = true
	}

	var leaked []*resource.TempFile
	for _, t := range after {
		if !known[t.ID()] {
			leaked = append(leaked, t)
		}
	}
	if len(leaked) == 0 {
		return
	}

	descs := make([]string, 0, len(leaked))
	for _, t := range leaked {
		descs = append(descs, t.String())
	}
	sort.Strings(descs)
	for _, d := range descs {
		c.leak(core.CheckTempFiles, "Leaked tempfile: "+d)
	}

	for _, t := range leaked {
		if err := t.Release(); err != nil {
			c.logger.Debug("releasing leaked tempfile", "tempfile", t.Path(), "error", err)
		}
	}
}

func (c *Checker) checkThreads(before, after []*resource.Thread) {
	for _, d := range threadDescs(subtractThreads(before, after)) {
		c.leak(core.CheckThreads, "Finished thread: "+d)
	}
	for _, d := range threadDescs(subtractThreads(after, before)) {
		c.leak(core.CheckThreads, "Leaked thread: "+d)
	}
}

func subtractThreads(a, b []*resource.Thread) []*resource.Thread {
	in := make(map[uint64]bool, len(b))
	for _, t := range b {
		in[t.ID()] = true
	}
	var result []*resource.Thread
	for _, t := range a {
		if !in[t.ID()] {
			result = append(result, t)
		}
	}
	return result
}

func threadDescs(threads []*resource.Thread) []string {
	descs := make([]string, 0, len(threads))
	for _, t := range threads {
		descs = append(descs, t.String())
	}
	sort.Strings(descs)
	return descs
}

func (c *Checker) checkGoroutines(baseline goleak.Option) {
	if baseline == nil {
		return
	}
	opts := []goleak.Option{
		baseline,
		goleak.IgnoreAnyFunction(resource.ThreadEntryFunction),
	}
	for _, fn := range c.opts.IgnoreFunctions {
		opts = append(opts, goleak.IgnoreAnyFunction(fn))
	}
	for _, g := range diagnostics.FindGoroutines(opts...) {
		c.leak(core.CheckGoroutines, "Leaked goroutine: "+g.String())
	}
}

func (c *Checker) checkSubprocesses() {
	result := diagnostics.ReapChildren(c.opts.ReapGrace)
	for _, child := range result.Reaped {
		if c.runningReported[child.PID] {
			delete(c.runningReported, child.PID)
			continue
		}
		c.leak(core.CheckSubprocesses, "Leaked subprocess: "+child.String())
	}
	if !result.Running {
		return
	}

	ctx, cancel := c.childrenContext()
	defer cancel()
	children, err := diagnostics.RunningChildren(ctx)
	if err != nil {
		c.logger.Debug("listing running children", "error", err)
		return
	}
	for _, child := range children {
		pid := int(child.PID)
		if c.runningReported[pid] {
			continue
		}
		c.runningReported[pid] = true
		c.leak(core.CheckSubprocesses, "Leaked subprocess: "+child.String())
	}
}

func (c *Checker) checkEnv(before, after map[string]string) {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		old, had := before[k]
		cur, has := after[k]
		switch {
		case had && has && old != cur:
			c.leak(core.CheckEnvironment, fmt.Sprintf("Environment variable changed: %q changed: %q -> %q", k, old, cur))
		case had && !has:
			c.leak(core.CheckEnvironment, fmt.Sprintf("Environment variable changed: %q deleted (was %q)", k, old))
		case !had && has:
			c.leak(core.CheckEnvironment, fmt.Sprintf("Environment variable changed: %q added: %q", k, cur))
		}
	}
}

func (c *Checker) checkArgv(before, after []string) {
	if !slices.Equal(before, after) {
		c.leak(core.CheckArgv, fmt.Sprintf("os.Args changed: %q to %q", before, after))
	}
}

func (c *Checker) checkFlags(before, after diagnostics.ResourceSnapshot) {
	if before.Flags.Verbose != after.Flags.Verbose {
		c.leak(core.CheckFlags, fmt.Sprintf("Global flag changed: verbose: %t to %t", before.Flags.Verbose, after.Flags.Verbose))
	}
	if before.Flags.Debug != after.Flags.Debug {
		c.leak(core.CheckFlags, fmt.Sprintf("Global flag changed: debug: %t to %t", before.Flags.Debug, after.Flags.Debug))
	}
	if before.GOMAXPROCS != after.GOMAXPROCS {
		c.leak(core.CheckFlags, fmt.Sprintf("Global flag changed: gomaxprocs: %d to %d", before.GOMAXPROCS, after.GOMAXPROCS))
	}
}

func (c *Checker) checkEncodings(before, after procstate.Encodings) {
	if before.Internal != after.Internal {
		c.leak(core.CheckEncodings, fmt.Sprintf("Default internal encoding changed: %q to %q", before.Internal, after.Internal))
	}
	if before.External != after.External {
		c.leak(core.CheckEncodings, fmt.Sprintf("Default external encoding changed: %q to %q", before.External, after.External))
	}
}

func (c *Checker) checkWorkdir(before, after string) {
	if before != after {
		c.leak(core.CheckWorkdir, fmt.Sprintf("Working directory changed: %q to %q", before, after))
	}
}

// checkTracepoints reports hooks left enabled. A hook is reported once per
// enabled period, like any other leak.
func (c *Checker) checkTracepoints() {
	var hooks []*resource.TraceHook
	if reg := c.opts.Sources.Registry; reg != nil {
		hooks = reg.TraceHooks()
	}

	enabled := make(map[*resource.TraceHook]bool, len(hooks))
	for _, h := range hooks {
		if !h.Enabled() {
			continue
		}
		enabled[h] = true
		if !c.hooksReported[h] {
			c.leak(core.CheckTracepoints, "Trace hook is still enabled: "+h.String())
		}
	}
	c.hooksReported = enabled

	if trace.IsEnabled() {
		if !c.tracerReported {
			c.leak(core.CheckTracepoints, "Execution tracer is still enabled")
		}
		c.tracerReported = true
	} else {
		c.tracerReported = false
	}
}

// subtract returns the elements of a missing from b. Both are sorted.
func subtract(a, b []int) []int {
	var result []int
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			result = append(result, a[i])
			i++
		case a[i] > b[j]:
			j++
		default:
			i++
			j++
		}
	}
	return result
}

// reusedDescriptors returns the descriptors of fds whose identity differs
// between before and after. A descriptor missing from either map is assumed
// unchanged.
func reusedDescriptors(fds []int, before, after map[int]diagnostics.DescriptorID) []int {
	var result []int
	for _, fd := range fds {
		was, ok := before[fd]
		if !ok {
			continue
		}
		now, ok := after[fd]
		if ok && now != was {
			result = append(result, fd)
		}
	}
	return result
}

// union merges two sorted descriptor lists.
func union(a, b []int) []int {
	result := append(append([]int(nil), a...), b...)
	slices.Sort(result)
	return slices.Compact(result)
}

// intersect returns the elements present in both sorted slices.
func intersect(a, b []int) []int {
	result := make([]int, 0, len(a))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			result = append(result, a[i])
			i++
			j++
		}
	}
	return result
}

package runner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/leakspec/internal/testutil"
)

func TestRunner_LifecycleOrder(t *testing.T) {
	r := New(nil)
	var events []string

	r.Register(EventStart, func(ex Example) {
		assert.Nil(t, ex)
		events = append(events, "start")
	})
	r.Register(EventAfter, func(ex Example) {
		events = append(events, "after:"+ex.Description())
	})

	r.Run(
		Func("one", func() error { events = append(events, "run:one"); return nil }),
		Func("two", func() error { events = append(events, "run:two"); return nil }),
	)
	r.Run(Func("three", nil))

	assert.Equal(t, []string{
		"start",
		"run:one", "after:one",
		"run:two", "after:two",
		"after:three",
	}, events)
}

func TestRunner_ProtectContinuesAfterFailure(t *testing.T) {
	r := New(nil)
	ran := 0

	failures := r.Run(
		Func("fails", func() error { ran++; return errors.New("boom") }),
		Func("panics", func() error { ran++; panic("kaboom") }),
		Func("passes", func() error { ran++; return nil }),
	)

	assert.Equal(t, 3, ran)
	require.Len(t, failures, 2)
	assert.True(t, strings.HasPrefix(failures[0].Location, "fails\n"))
	assert.EqualError(t, failures[0].Err, "boom")
	assert.Contains(t, failures[1].Err.Error(), "panic: kaboom")
	assert.Len(t, r.Failures(), 2)
	assert.Error(t, r.Err())
}

func TestRunner_Protect(t *testing.T) {
	r := New(nil)

	assert.True(t, r.Protect("ok", func() error { return nil }))
	assert.False(t, r.Protect("bad", func() error { return errors.New("bad") }))
	assert.NoError(t, New(nil).Err())
}

func TestLocation(t *testing.T) {
	ex := Func("described", nil)
	file, line, ok := ex.Location()
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(file, "runner_test.go"))
	assert.Positive(t, line)

	assert.Equal(t, "bare", Location(&FuncExample{Name: "bare"}))
	assert.Equal(t, "", Location(nil))
	assert.Contains(t, Location(ex), "described\n")
}

func TestTestExample(t *testing.T) {
	ex := TestExample(t, 0)

	assert.Equal(t, t.Name(), ex.Description())
	file, _, ok := ex.Location()
	assert.True(t, ok)
	assert.True(t, strings.HasSuffix(file, "runner_test.go"))
}

func TestTestingProtector(t *testing.T) {
	tb := testutil.NewFakeTB("protector")
	p := TestingProtector{T: tb}

	assert.True(t, p.Protect("loc", func() error { return nil }))
	assert.False(t, p.Protect("loc", func() error { return errors.New("x") }))
	assert.False(t, p.Protect("loc", func() error { panic("y") }))
	assert.Len(t, tb.Errors(), 2)
}

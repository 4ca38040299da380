package testutil_test

import (
	"sync"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/leakspec/internal/testutil"
)

func TestFakeTB_CollectsErrors(t *testing.T) {
	tb := testutil.NewFakeTB("example")
	testutil.AssertEqual(t, tb.Name(), "example")
	testutil.AssertEqual(t, tb.Failed(), false)

	tb.Errorf("leaked %d", 2)
	tb.Errorf("plain")

	testutil.AssertEqual(t, tb.Failed(), true)
	errs := tb.Errors()
	testutil.AssertLen(t, errs, 2)
	testutil.AssertEqual(t, errs[0], "leaked 2")
	testutil.AssertEqual(t, errs[1], "plain")
}

func TestFakeTB_CleanupsRunInReverse(t *testing.T) {
	tb := testutil.NewFakeTB("cleanup")
	var order []int
	tb.Cleanup(func() { order = append(order, 1) })
	tb.Cleanup(func() { order = append(order, 2) })

	testutil.AssertLen(t, order, 0)
	tb.RunCleanups()
	testutil.AssertLen(t, order, 2)
	testutil.AssertEqual(t, order[0], 2)
	testutil.AssertEqual(t, order[1], 1)

	tb.RunCleanups()
	testutil.AssertLen(t, order, 2)
}

func TestRecordingObserver(t *testing.T) {
	obs := testutil.NewRecordingObserver()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs.LeakFound("descriptors", "Leaked file descriptor: 3")
		}()
	}
	wg.Wait()
	obs.ExampleChecked("opens a file", []string{"a", "b"}, time.Millisecond)
	obs.ExampleChecked("is clean", nil, time.Millisecond)

	testutil.AssertLen(t, obs.Found(), 10)
	testutil.AssertEqual(t, obs.Found()[0], testutil.LeakEvent{Check: "descriptors", Message: "Leaked file descriptor: 3"})
	checked := obs.Checked()
	testutil.AssertLen(t, checked, 2)
	testutil.AssertEqual(t, checked[0], "opens a file:2")
	testutil.AssertEqual(t, checked[1], "is clean:0")
}

func TestRecordingRecorder_CopiesLeaks(t *testing.T) {
	rec := testutil.NewRecordingRecorder()
	leaks := []string{"Leaked tempfile: /tmp/x"}
	rec.LeakFailure("writes", "writes\nx_test.go:10", leaks)
	leaks[0] = "mutated"

	got := rec.Failures()
	testutil.AssertLen(t, got, 1)
	testutil.AssertEqual(t, got[0].Example, "writes")
	testutil.AssertEqual(t, got[0].Location, "writes\nx_test.go:10")
	testutil.AssertEqual(t, got[0].Leaks[0], "Leaked tempfile: /tmp/x")
}

func TestWaitFor(t *testing.T) {
	calls := 0
	ok := testutil.WaitFor(time.Second, func() bool {
		calls++
		return calls == 3
	})
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, calls, 3)

	testutil.AssertEqual(t, testutil.WaitFor(10*time.Millisecond, func() bool { return false }), false)
}

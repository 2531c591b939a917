package testkit

import (
	"testing"
	"time"
)

var seamValue = 10

func TestSwapRestores(t *testing.T) {
	t.Run("swap", func(t *testing.T) {
		Swap(t, &seamValue, 99)
		if seamValue != 99 {
			t.Fatalf("swap not applied")
		}
	})
	if seamValue != 10 {
		t.Fatalf("swap not restored: %d", seamValue)
	}
}

func TestHelpers(t *testing.T) {
	MustPanic(t, func() { panic("x") })
	MustNotPanic(t, func() {})
	MustContain(t, "request done status=200", "status=200")

	n := 0
	Eventually(t, time.Second, func() bool { n++; return n > 2 }, "counter")
}

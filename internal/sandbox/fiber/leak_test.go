package fiber

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that driving a fiber to completion (or to failure)
// never leaves its goroutine parked on an unresolved channel send/receive.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

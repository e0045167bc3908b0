// Package clock supplies the one-line Clock implementation the CLI harness
// injects into the core; the pure core itself never imports time.
package clock

import (
	"time"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
)

// Real is a ports.Clock backed by time.Now.
type Real struct{}

var _ ports.Clock = Real{}

// NowEpochMs returns the current time as epoch milliseconds.
func (Real) NowEpochMs() int64 {
	return time.Now().UnixMilli()
}

// Fixed is a ports.Clock that always returns the same instant, for tests.
type Fixed int64

var _ ports.Clock = Fixed(0)

// NowEpochMs returns the fixed instant f was constructed with.
func (f Fixed) NowEpochMs() int64 {
	return int64(f)
}

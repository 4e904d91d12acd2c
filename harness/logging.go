package harness

import (
	"time"

	imsm "github.com/pkhuong/direct-mode-fsm"
)

func logInfo(l *imsm.Logger, frameIndex, notifications int, d time.Duration) {
	b := l.Info()
	if b == nil {
		return
	}
	b.Int("frame", frameIndex).
		Int("notifications", notifications).
		Dur("duration", d).
		Log("imsm: frame complete")
}

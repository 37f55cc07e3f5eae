// SPDX-License-Identifier: MIT

package audio

import (
	"fmt"

	"github.com/faiface/beep"

	"github.com/glintworks/reels/internal/playback/ports"
)

// loopRegion streams a [start,end) sample window of a seekable source
// forever, seeking back to start whenever the window is exhausted.
type loopRegion struct {
	s          beep.StreamSeeker
	start, end int
}

// newLoopRegion builds the looping streamer for a track, clamping the
// configured second offsets to the decoded length.
func newLoopRegion(src ports.AudioSource, startSec float64, endSec *float64) (*loopRegion, error) {
	s := src.Stream()
	sr := src.SampleRate()
	length := s.Len()

	start := 0
	if startSec > 0 {
		start = int(float64(sr) * startSec)
	}
	if start >= length {
		start = 0
	}

	end := length
	if endSec != nil {
		if e := int(float64(sr) * *endSec); e > start && e < length {
			end = e
		}
	}

	if err := s.Seek(start); err != nil {
		return nil, fmt.Errorf("seek to loop start: %w", err)
	}
	return &loopRegion{s: s, start: start, end: end}, nil
}

func (l *loopRegion) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		pos := l.s.Position()
		if pos >= l.end {
			if err := l.s.Seek(l.start); err != nil {
				return filled, filled > 0
			}
			pos = l.start
		}

		limit := len(samples) - filled
		if remain := l.end - pos; remain < limit {
			limit = remain
		}

		n, ok := l.s.Stream(samples[filled : filled+limit])
		filled += n
		if !ok || n == 0 {
			// Source exhausted before the window end; wrap around.
			if err := l.s.Seek(l.start); err != nil {
				return filled, filled > 0
			}
			if n == 0 && ok {
				// Zero progress without end-of-stream: bail instead of spinning.
				return filled, filled > 0
			}
		}
	}
	return filled, true
}

func (l *loopRegion) Err() error {
	return l.s.Err()
}

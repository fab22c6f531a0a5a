package audio

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/errors"
)

// Trimmer removes leading and trailing silence from a waveform using an
// amplitude threshold. Internal pauses are never touched.
type Trimmer struct {
	// Threshold is the absolute 16-bit sample amplitude below which audio
	// counts as silence.
	Threshold int16
	// Padding is how much audio to keep on either side of the detected
	// speech so word onsets are not clipped.
	Padding time.Duration

	log zerolog.Logger
}

// NewTrimmer creates a trimmer with the given silence threshold.
func NewTrimmer(threshold int16, log zerolog.Logger) *Trimmer {
	return &Trimmer{
		Threshold: threshold,
		Padding:   100 * time.Millisecond,
		log:       log,
	}
}

// Trim reads the waveform at src, strips head/tail silence, and writes the
// reduced waveform to dst. On success the new artifact is returned; on any
// decode or write failure the caller must retain the original file.
func (t *Trimmer) Trim(src, dst string) (*Artifact, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTrimFailed, "failed to read recording", err)
	}

	pcm, format, err := DecodeWAV(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTrimFailed, "failed to decode recording", err)
	}
	if format.BitsPerSample != 16 {
		return nil, errors.New(errors.ErrTrimFailed, "only 16-bit recordings can be trimmed")
	}

	first, last := t.speechBounds(pcm, format)
	if first < 0 {
		return nil, errors.New(errors.ErrTrimFailed, "no speech detected in recording")
	}

	pad := int(t.Padding.Seconds() * float64(format.BytesPerSecond()))
	start := first - pad
	if start < 0 {
		start = 0
	}
	end := last + pad
	if end > len(pcm) {
		end = len(pcm)
	}
	// Keep frame alignment
	frame := format.Channels * 2
	start -= start % frame
	end -= end % frame

	trimmed := EncodeWAV(pcm[start:end], format)
	if err := os.WriteFile(dst, trimmed, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrTrimFailed, "failed to write trimmed recording", err)
	}

	artifact := &Artifact{
		Path:     dst,
		Duration: format.Duration(end - start),
		Size:     int64(len(trimmed)),
	}

	t.log.Debug().
		Dur("original", format.Duration(len(pcm))).
		Dur("trimmed", artifact.Duration).
		Msg("silence trimmed")

	return artifact, nil
}

// speechBounds returns the byte offsets of the first and one past the last
// sample above the threshold, or (-1, -1) when the waveform is all silence.
func (t *Trimmer) speechBounds(pcm []byte, format Format) (int, int) {
	first, last := -1, -1

	for i := 0; i+1 < len(pcm); i += 2 {
		s := int(int16(pcm[i]) | int16(pcm[i+1])<<8)
		if s < 0 {
			s = -s
		}
		if s >= int(t.Threshold) {
			if first < 0 {
				first = i
			}
			last = i + 2
		}
	}

	return first, last
}

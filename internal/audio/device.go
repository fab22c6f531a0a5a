package audio

import (
	"os"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/errors"
)

const framesPerBuffer = 1024

// Recorder captures microphone audio through portaudio. It holds the
// physical input device exclusively between Start and StopAndSave.
type Recorder struct {
	format     Format
	maxSamples int
	log        zerolog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	samples []int16
	running bool
	started time.Time
	done    chan struct{}
}

// NewRecorder initializes portaudio and returns a recorder producing
// waveforms in the given format. Capture is capped at maxDuration of
// audio; zero means unbounded.
func NewRecorder(format Format, maxDuration time.Duration, log zerolog.Logger) (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(errors.ErrDeviceUnavailable, "failed to initialize audio subsystem", err)
	}

	maxSamples := 0
	if maxDuration > 0 {
		maxSamples = int(maxDuration.Seconds() * float64(format.SampleRate) * float64(format.Channels))
	}

	return &Recorder{
		format:     format,
		maxSamples: maxSamples,
		log:        log,
		buffer:     make([]int16, framesPerBuffer*format.Channels),
	}, nil
}

// Close releases the audio subsystem. The recorder must be stopped first.
func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

// Start acquires the input device and begins buffering. A second Start
// while active fails with AlreadyRecording rather than truncating the
// capture in progress.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.AlreadyRecording()
	}

	stream, err := portaudio.OpenDefaultStream(
		r.format.Channels,
		0,
		float64(r.format.SampleRate),
		framesPerBuffer,
		r.buffer,
	)
	if err != nil {
		return errors.DeviceUnavailable(err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return errors.DeviceUnavailable(err)
	}

	capacity := r.format.SampleRate * r.format.Channels
	if r.maxSamples > 0 {
		capacity = r.maxSamples
	}

	r.stream = stream
	r.samples = make([]int16, 0, capacity)
	r.running = true
	r.started = time.Now()
	r.done = make(chan struct{})

	go r.captureLoop()

	r.log.Debug().Int("sample_rate", r.format.SampleRate).Msg("capture started")
	return nil
}

func (r *Recorder) captureLoop() {
	defer close(r.done)

	for {
		r.mu.Lock()
		running := r.running
		stream := r.stream
		r.mu.Unlock()

		if !running || stream == nil {
			return
		}

		available, err := stream.AvailableToRead()
		if err != nil || available == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := stream.Read(); err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		r.mu.Lock()
		if r.running {
			// Past the cap the stream is still drained, the excess is dropped.
			if r.maxSamples > 0 && len(r.samples)+len(r.buffer) > r.maxSamples {
				if room := r.maxSamples - len(r.samples); room > 0 {
					r.samples = append(r.samples, r.buffer[:room]...)
				}
			} else {
				r.samples = append(r.samples, r.buffer...)
			}
		}
		r.mu.Unlock()
	}
}

// IsActive reports whether capture is currently running.
func (r *Recorder) IsActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Elapsed returns how long the current capture has been running, or zero
// when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return 0
	}
	return time.Since(r.started)
}

// StopAndSave flushes buffered audio to a WAV file at dest and releases
// the device. Fails with WriteFailure if zero bytes were captured or the
// destination could not be written.
func (r *Recorder) StopAndSave(dest string) (*Artifact, error) {
	samples, err := r.stop()
	if err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		return nil, errors.New(errors.ErrWriteFailure, "no audio captured")
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	data := EncodeWAV(pcm, r.format)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrWriteFailure, "failed to write recording", err)
	}

	artifact := &Artifact{
		Path:     dest,
		Duration: r.format.Duration(len(pcm)),
		Size:     int64(len(data)),
	}

	r.log.Debug().
		Str("path", dest).
		Dur("duration", artifact.Duration).
		Int64("size", artifact.Size).
		Msg("capture saved")

	return artifact, nil
}

// Cancel stops an active capture and discards the buffered audio. It is
// a no-op when nothing is recording.
func (r *Recorder) Cancel() error {
	if _, err := r.stop(); err != nil {
		return nil
	}
	r.log.Debug().Msg("capture cancelled")
	return nil
}

func (r *Recorder) stop() ([]int16, error) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil, errors.NoRecording()
	}
	r.running = false
	stream := r.stream
	r.stream = nil
	samples := r.samples
	r.samples = nil
	done := r.done
	r.mu.Unlock()

	<-done

	if stream != nil {
		if err := stream.Stop(); err != nil {
			r.log.Warn().Err(err).Msg("failed to stop audio stream cleanly")
		}
		stream.Close()
	}

	return samples, nil
}

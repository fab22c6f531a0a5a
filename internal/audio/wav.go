package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Format describes the PCM layout of a waveform.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat is 16kHz mono 16-bit, the layout the capture device produces
// and the scoring engine expects.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// BytesPerSecond returns the PCM byte rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// Duration returns the play time of a PCM payload in this format.
func (f Format) Duration(pcmLen int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(pcmLen) * time.Second / time.Duration(bps)
}

const wavHeaderLen = 44

// EncodeWAV wraps raw PCM audio data with a 44-byte WAV header.
func EncodeWAV(pcm []byte, f Format) []byte {
	dataLen := len(pcm)
	byteRate := f.BytesPerSecond()
	blockAlign := f.Channels * f.BitsPerSample / 8

	header := make([]byte, wavHeaderLen)

	// RIFF chunk descriptor
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")

	// fmt sub-chunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // sub-chunk size for PCM
	binary.LittleEndian.PutUint16(header[20:22], 1)  // audio format 1 = PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(f.BitsPerSample))

	// data sub-chunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	return append(header, pcm...)
}

// DecodeWAV parses a WAV file and returns its PCM payload and format.
// Only uncompressed PCM is supported; extra chunks between "fmt " and
// "data" are skipped.
func DecodeWAV(data []byte) ([]byte, Format, error) {
	var f Format

	if len(data) < wavHeaderLen {
		return nil, f, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, f, fmt.Errorf("not a RIFF/WAVE file")
	}

	pos := 12
	var pcm []byte
	haveFmt := false

	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkLen > len(data) {
			chunkLen = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, f, fmt.Errorf("fmt chunk too short: %d bytes", chunkLen)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, f, fmt.Errorf("unsupported audio format %d (want PCM)", audioFormat)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+chunkLen]
		}

		// Chunks are word-aligned
		if chunkLen%2 == 1 {
			chunkLen++
		}
		pos = body + chunkLen
	}

	if !haveFmt {
		return nil, f, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, f, fmt.Errorf("missing data chunk")
	}
	if f.Channels == 0 || f.SampleRate == 0 || f.BitsPerSample == 0 {
		return nil, f, fmt.Errorf("invalid format: %+v", f)
	}

	return pcm, f, nil
}

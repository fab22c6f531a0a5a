package audio

import (
	"os"
	"time"
)

// Artifact is a file-backed waveform produced by one practice attempt.
// It is owned by the session that created it and removed when superseded
// or when the session ends.
type Artifact struct {
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
	Size     int64         `json:"size"`
}

// Remove deletes the backing file. Missing files are not an error so a
// superseded artifact can be removed twice safely.
func (a *Artifact) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

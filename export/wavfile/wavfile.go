// Package wavfile writes packaged PCM buffers as RIFF/WAVE files.
//
// 16- and 24-bit buffers are written as integer PCM (format tag 1). Float32
// buffers are written as IEEE float (format tag 3) with the raw float bits
// carried through the integer encoder.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/pcm"
)

// WAVE format tags.
const (
	FormatPCM       = 1
	FormatIEEEFloat = 3
)

// ErrEmptyBuffer is returned when a buffer carries no samples.
var ErrEmptyBuffer = errors.New("wavfile: empty buffer")

// Sink persists buffers to the filesystem.
type Sink struct {
	// DirMode is used when creating parent directories. Zero means 0o755.
	DirMode os.FileMode
}

// Write encodes buf to path, creating parent directories as needed.
func (s Sink) Write(buf *pcm.Buffer, path string) error {
	mode := s.DirMode
	if mode == 0 {
		mode = 0o755
	}
	if err := os.MkdirAll(filepath.Dir(path), mode); err != nil {
		return fmt.Errorf("wavfile: create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavfile: create %s: %w", path, err)
	}

	if err := Encode(f, buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("wavfile: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("wavfile: close %s: %w", path, err)
	}
	return nil
}

// Encode writes buf as a complete WAV stream to w.
func Encode(w io.WriteSeeker, buf *pcm.Buffer) error {
	if buf == nil || buf.Len() == 0 {
		return ErrEmptyBuffer
	}
	if buf.SampleRate <= 0 || buf.Channels <= 0 || !buf.BitDepth.Valid() {
		return fmt.Errorf("wavfile: invalid layout rate=%d channels=%d depth=%v: %w",
			buf.SampleRate, buf.Channels, buf.BitDepth, core.ErrInvalidArgument)
	}

	format := FormatPCM
	if buf.BitDepth.IsFloat() {
		format = FormatIEEEFloat
	}
	bits := buf.BitDepth.Bits()

	enc := wav.NewEncoder(w, buf.SampleRate, bits, buf.Channels, format)
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		Data:           toInts(buf),
		SourceBitDepth: bits,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("wavfile: encode samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavfile: finalize header: %w", err)
	}
	return nil
}

func toInts(buf *pcm.Buffer) []int {
	data := make([]int, buf.Len())
	if buf.BitDepth.IsFloat() {
		for i, f := range buf.Floats {
			data[i] = int(int32(math.Float32bits(f)))
		}
		return data
	}
	for i, v := range buf.Ints {
		data[i] = int(v)
	}
	return data
}

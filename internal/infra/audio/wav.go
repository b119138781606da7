package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV wraps mono 16-bit PCM samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, int16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// Segmenter accumulates microphone frames into one utterance. An utterance
// starts at the first loud frame and ends after a run of silence or when it
// reaches the maximum length.
type Segmenter struct {
	threshold  int16
	maxSilence int
	maxSamples int

	samples []int16
	silence int
	started bool
}

func NewSegmenter(sampleRate int, threshold int16, silence, max float64) *Segmenter {
	return &Segmenter{
		threshold:  threshold,
		maxSilence: int(float64(sampleRate) * silence),
		maxSamples: int(float64(sampleRate) * max),
	}
}

// Push adds a frame and reports whether the utterance is complete.
func (s *Segmenter) Push(frame []int16) bool {
	loud := !s.silent(frame)
	if !s.started {
		if !loud {
			return false
		}
		s.started = true
	}

	s.samples = append(s.samples, frame...)
	if loud {
		s.silence = 0
	} else {
		s.silence += len(frame)
	}

	return s.silence >= s.maxSilence || len(s.samples) >= s.maxSamples
}

func (s *Segmenter) silent(frame []int16) bool {
	for _, sample := range frame {
		if sample > s.threshold || sample < -s.threshold {
			return false
		}
	}
	return true
}

// Take returns the collected samples and resets the segmenter.
func (s *Segmenter) Take() []int16 {
	out := s.samples
	s.samples = nil
	s.silence = 0
	s.started = false
	return out
}

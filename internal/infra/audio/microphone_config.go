package audio

type MicrophoneConfig struct {
	SampleRate       int
	SilenceThreshold int16
	SilenceSeconds   float64
	MaxSeconds       float64
}

func (c MicrophoneConfig) withDefaults() MicrophoneConfig {
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.SilenceThreshold == 0 {
		c.SilenceThreshold = 500
	}
	if c.SilenceSeconds == 0 {
		c.SilenceSeconds = 1
	}
	if c.MaxSeconds == 0 {
		c.MaxSeconds = 10
	}
	return c
}

package fingerprint

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/fft"
)

const (
	chromaWindowSize = 2048
	chromaHopSize    = 512
	chromaBins       = 12

	// Bins below this frequency map to pitch classes too coarsely to be
	// useful at our window size.
	chromaMinFreq = 55.0
	chromaRefFreq = 440.0
)

// ChromaVector computes a 12-dimensional pitch-class energy profile of the
// signal: an STFT whose bin energies are folded onto the twelve semitone
// classes, averaged over time and L2-normalized. Returns nil when the signal
// is too short or carries no measurable energy; nil means "no audio
// fingerprint", which is a valid terminal state, not an error.
func ChromaVector(samples []float64, sampleRate int) []float64 {
	if len(samples) < chromaWindowSize || sampleRate <= 0 {
		return nil
	}

	window := hammingWindow(chromaWindowSize)
	frame := make([]float64, chromaWindowSize)
	var acc [chromaBins]float64
	frames := 0

	for start := 0; start+chromaWindowSize <= len(samples); start += chromaHopSize {
		for i := range frame {
			frame[i] = samples[start+i] * window[i]
		}
		spectrum := fft.FFTReal(frame)

		var classes [chromaBins]float64
		var energy float64
		for k := 1; k < chromaWindowSize/2; k++ {
			freq := float64(k) * float64(sampleRate) / chromaWindowSize
			if freq < chromaMinFreq {
				continue
			}
			mag := cmplx.Abs(spectrum[k])
			e := mag * mag
			classes[pitchClass(freq)] += e
			energy += e
		}
		if energy <= 0 {
			// Silent frame, nothing to fold.
			continue
		}

		// Per-frame normalization keeps loud passages from dominating
		// the time average.
		for i := range classes {
			acc[i] += classes[i] / energy
		}
		frames++
	}

	if frames == 0 {
		return nil
	}

	vec := make([]float64, chromaBins)
	var norm float64
	for i := range acc {
		vec[i] = acc[i] / float64(frames)
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// pitchClass maps a frequency to its semitone class, 0 being A.
func pitchClass(freq float64) int {
	semitones := int(math.Round(chromaBins * math.Log2(freq/chromaRefFreq)))
	return ((semitones % chromaBins) + chromaBins) % chromaBins
}

func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// ReadWAVMono decodes a WAV file into normalized mono float64 samples in
// [-1, 1] and returns its sample rate.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening wav %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding wav %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, nil
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	return monoFloat(buf, bitDepth), buf.Format.SampleRate, nil
}

// monoFloat downmixes an interleaved PCM buffer to mono and scales samples
// to [-1, 1].
func monoFloat(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (bitDepth - 1))

	n := len(buf.Data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}

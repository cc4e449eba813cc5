package quant

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is the power spectrum of a close-price series with its log-log
// slope fit. Alpha is the spectral exponent; Hurst = -(Alpha+1)/2 is the
// cross-check against the rolling R/S estimate. FalloffDB is the fitted
// power decay in dB per decade of frequency.
type Spectrum struct {
	Freqs   []float64 // cycles per tick, index 0 is DC
	Power   []float64 // squared FFT magnitude
	PowerDB []float64 // relative to peak power

	Alpha     float64
	Intercept float64
	Hurst     float64
	FalloffDB float64
}

// AnalyzeSpectrum demeans the series, applies a Hamming window, takes the
// real FFT and fits log10(power) against log10(frequency) over strictly
// positive frequencies. Series too short for a fit yield NaN coefficients,
// never an error.
func AnalyzeSpectrum(closes []float64) *Spectrum {
	n := len(closes)
	sp := &Spectrum{
		Alpha:     math.NaN(),
		Intercept: math.NaN(),
		Hurst:     math.NaN(),
		FalloffDB: math.NaN(),
	}
	if n == 0 {
		return sp
	}

	mean := stat.Mean(closes, nil)
	signal := make([]float64, n)
	for i, v := range closes {
		signal[i] = v - mean
	}
	window.Hamming(signal)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, signal)

	sp.Freqs = make([]float64, len(coeffs))
	sp.Power = make([]float64, len(coeffs))
	for i, c := range coeffs {
		sp.Freqs[i] = fft.Freq(i)
		mag := cmplx.Abs(c)
		sp.Power[i] = mag * mag
	}

	peak := floats.Max(sp.Power)
	sp.PowerDB = make([]float64, len(sp.Power))
	for i, p := range sp.Power {
		sp.PowerDB[i] = 10 * math.Log10(p/peak)
	}

	// log-log fit over positive frequencies only, skipping exact zeros
	var logF, logP []float64
	for i := 1; i < len(sp.Freqs); i++ {
		if sp.Freqs[i] > 0 && sp.Power[i] > 0 {
			logF = append(logF, math.Log10(sp.Freqs[i]))
			logP = append(logP, math.Log10(sp.Power[i]))
		}
	}
	if len(logF) < 2 {
		return sp
	}

	sp.Intercept, sp.Alpha = stat.LinearRegression(logF, logP, nil, false)
	sp.Hurst = -(sp.Alpha + 1) / 2
	sp.FalloffDB = 10 * sp.Alpha
	return sp
}

// WriteCSV emits the frequency/power pairs in the external artifact format:
// a "Frequency,Power" header followed by two comma-separated columns.
func (sp *Spectrum) WriteCSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Frequency,Power"); err != nil {
		return err
	}
	for i := range sp.Freqs {
		if _, err := fmt.Fprintf(w, "%.18e,%.18e\n", sp.Freqs[i], sp.Power[i]); err != nil {
			return err
		}
	}
	return nil
}

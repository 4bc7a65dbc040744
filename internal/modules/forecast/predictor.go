package forecast

import (
	"fmt"
	"time"
)

// Model produces point forecasts from a fitted state.
type Model interface {
	Forecast(horizon int) ([]float64, error)
}

// Predictor evaluates a fitted SARIMA artifact. It runs the model's
// difference equation forward over the stored training tails and integrates
// the result back to the original scale. Evaluation only: fitting happened
// upstream, the predictor never re-estimates anything.
type Predictor struct {
	artifact *Artifact
}

// NewPredictor wraps a validated artifact.
func NewPredictor(a *Artifact) (*Predictor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Predictor{artifact: a}, nil
}

// Target names the series this model predicts.
func (p *Predictor) Target() string { return p.artifact.Target }

// Cutoff is the last month of training data. Forecasts start one month after.
func (p *Predictor) Cutoff() time.Time { return p.artifact.Cutoff }

// Order returns the SARIMA order.
func (p *Predictor) Order() Order { return p.artifact.Order }

// Variance is the residual variance estimated during fitting.
func (p *Predictor) Variance() float64 { return p.artifact.Variance }

// Forecast returns horizon monthly predictions on the original scale.
//
// The recursion extends the differenced series step by step: AR and seasonal
// AR terms read the extended series, MA and seasonal MA terms read known
// residuals only (future residuals are zero by construction). Integration
// then undoes seasonal differencing against the stored season of the
// non-seasonally differenced series, and non-seasonal differencing as a
// cumulative sum from the last raw level.
func (p *Predictor) Forecast(horizon int) ([]float64, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1, got %d", ErrForecastFailed, horizon)
	}

	a := p.artifact
	o := a.Order
	n := len(a.DiffTail)

	ext := make([]float64, n+horizon)
	copy(ext, a.DiffTail)
	resid := make([]float64, n+horizon)
	copy(resid, a.ResidualTail)

	for h := 0; h < horizon; h++ {
		t := n + h
		pred := a.Intercept

		for i := 0; i < o.P && t-i-1 >= 0; i++ {
			pred += a.ARCoeffs[i] * (ext[t-i-1] - a.Intercept)
		}
		for i := 0; i < o.SP; i++ {
			lag := (i + 1) * o.M
			if t-lag >= 0 {
				pred += a.SARCoeffs[i] * (ext[t-lag] - a.Intercept)
			}
		}
		for i := 0; i < o.Q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += a.MACoeffs[i] * resid[t-i-1]
		}
		for i := 0; i < o.SQ; i++ {
			lag := (i + 1) * o.M
			if t-lag >= 0 && t-lag < n {
				pred += a.SMACoeffs[i] * resid[t-lag]
			}
		}

		ext[t] = pred
		resid[t] = 0
	}

	forecast := make([]float64, horizon)
	copy(forecast, ext[n:])
	return p.integrate(forecast), nil
}

// integrate undoes the differencing applied during fitting. Fitting
// differenced non-seasonally first (d passes) then seasonally (sd passes),
// so integration runs in reverse: seasonal first, then non-seasonal.
func (p *Predictor) integrate(forecast []float64) []float64 {
	a := p.artifact
	d := a.Order.D
	sd := a.Order.SD
	period := a.Order.M
	raw := a.RawTail

	result := forecast

	// Non-seasonally differenced tail, the base values for the seasonal undo.
	nsd := raw
	for i := 0; i < d; i++ {
		if len(nsd) <= 1 {
			break
		}
		next := make([]float64, len(nsd)-1)
		for j := 1; j < len(nsd); j++ {
			next[j-1] = nsd[j] - nsd[j-1]
		}
		nsd = next
	}

	// Seasonal: z_t = y_t - y_{t-m}, so y_t = z_t + y_{t-m}. The first
	// season pulls from the stored tail, later steps from earlier
	// integrated forecasts.
	if sd > 0 && period > 0 {
		nd := len(nsd)
		for i := 0; i < sd; i++ {
			for j := 0; j < len(result); j++ {
				if j < period {
					idx := nd - period + j
					if idx >= 0 && idx < nd {
						result[j] += nsd[idx]
					}
				} else {
					result[j] += result[j-period]
				}
			}
		}
	}

	// Non-seasonal: y'_t = y_t - y_{t-1}, a cumulative sum seeded by the
	// last raw level.
	for i := 0; i < d; i++ {
		last := raw[len(raw)-1]
		for j := 0; j < len(result); j++ {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}

	return result
}

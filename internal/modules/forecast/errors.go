package forecast

import (
	"errors"

	"github.com/aldikusuma/neraca/internal/modules/dataset"
)

// Sentinel errors for the model loading and orchestration path. Handlers map
// these to HTTP payloads, the service maps them to run event codes.
var (
	// ErrArtifactNotFound - no model artifact exists at the configured path
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrArtifactInvalid - the artifact exists but cannot be decoded or fails validation
	ErrArtifactInvalid = errors.New("model artifact invalid")
	// ErrHorizonOutOfRange - requested horizon is outside [HorizonMin, HorizonMax]
	ErrHorizonOutOfRange = errors.New("forecast horizon out of range")
	// ErrCutoffMismatch - the three artifacts were not trained through the same month
	ErrCutoffMismatch = errors.New("model training cutoffs differ")
	// ErrForecastFailed - a model produced no usable forecast
	ErrForecastFailed = errors.New("forecast failed")
)

// API error codes carried in run_failed events and HTTP error payloads.
const (
	CodeDatasetNotFound   = "dataset_not_found"
	CodeDatasetMalformed  = "dataset_malformed"
	CodeArtifactNotFound  = "artifact_not_found"
	CodeArtifactInvalid   = "artifact_invalid"
	CodeHorizonOutOfRange = "horizon_out_of_range"
	CodeCutoffMismatch    = "cutoff_mismatch"
	CodeForecastFailed    = "forecast_failed"
)

// ErrorCode returns the stable API code for a run error. Unrecognized errors
// fall through to forecast_failed.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrHorizonOutOfRange):
		return CodeHorizonOutOfRange
	case errors.Is(err, dataset.ErrNotFound):
		return CodeDatasetNotFound
	case errors.Is(err, dataset.ErrMalformed):
		return CodeDatasetMalformed
	case errors.Is(err, ErrArtifactNotFound):
		return CodeArtifactNotFound
	case errors.Is(err, ErrArtifactInvalid):
		return CodeArtifactInvalid
	case errors.Is(err, ErrCutoffMismatch):
		return CodeCutoffMismatch
	default:
		return CodeForecastFailed
	}
}

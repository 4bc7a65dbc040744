package forecast

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the artifact format this build reads. Artifacts carrying
// any other version are rejected as invalid rather than guessed at.
const SchemaVersion = 1

// Order is the SARIMA order (p,d,q)(P,D,Q,m).
type Order struct {
	P  int `msgpack:"p" json:"p"`
	D  int `msgpack:"d" json:"d"`
	Q  int `msgpack:"q" json:"q"`
	SP int `msgpack:"sp" json:"sp"`
	SD int `msgpack:"sd" json:"sd"`
	SQ int `msgpack:"sq" json:"sq"`
	M  int `msgpack:"m" json:"m"`
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// maxLag is the furthest back the forecast recursion reaches into the
// differenced series, in steps.
func (o Order) maxLag() int {
	lag := o.P
	if o.Q > lag {
		lag = o.Q
	}
	if s := o.SP * o.M; s > lag {
		lag = s
	}
	if s := o.SQ * o.M; s > lag {
		lag = s
	}
	return lag
}

// Artifact is the serialized state of one fitted SARIMA model, produced by
// the upstream modeling pipeline. It carries the coefficients plus just
// enough training tail to evaluate forecasts: the differenced series and
// residuals provide lag context for the recursion, the raw series seeds the
// integration back to the original scale.
type Artifact struct {
	Schema       int       `msgpack:"schema"`
	Target       string    `msgpack:"target"`
	Order        Order     `msgpack:"order"`
	ARCoeffs     []float64 `msgpack:"ar"`
	MACoeffs     []float64 `msgpack:"ma"`
	SARCoeffs    []float64 `msgpack:"sar"`
	SMACoeffs    []float64 `msgpack:"sma"`
	Intercept    float64   `msgpack:"intercept"`
	Variance     float64   `msgpack:"variance"`
	DiffTail     []float64 `msgpack:"diff_tail"`
	ResidualTail []float64 `msgpack:"residual_tail"`
	RawTail      []float64 `msgpack:"raw_tail"`
	Cutoff       time.Time `msgpack:"cutoff"`
}

// Validate checks the decoded artifact for internal consistency. Every
// failure wraps ErrArtifactInvalid.
func (a *Artifact) Validate() error {
	if a.Schema != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d (want %d)", ErrArtifactInvalid, a.Schema, SchemaVersion)
	}
	if a.Target == "" {
		return fmt.Errorf("%w: missing target name", ErrArtifactInvalid)
	}
	o := a.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 || o.M < 0 {
		return fmt.Errorf("%w: negative order component in %s", ErrArtifactInvalid, o)
	}
	if (o.SP > 0 || o.SD > 0 || o.SQ > 0) && o.M < 1 {
		return fmt.Errorf("%w: seasonal order %s without a seasonal period", ErrArtifactInvalid, o)
	}
	if len(a.ARCoeffs) != o.P {
		return fmt.Errorf("%w: %d AR coefficients for order p=%d", ErrArtifactInvalid, len(a.ARCoeffs), o.P)
	}
	if len(a.MACoeffs) != o.Q {
		return fmt.Errorf("%w: %d MA coefficients for order q=%d", ErrArtifactInvalid, len(a.MACoeffs), o.Q)
	}
	if len(a.SARCoeffs) != o.SP {
		return fmt.Errorf("%w: %d seasonal AR coefficients for order P=%d", ErrArtifactInvalid, len(a.SARCoeffs), o.SP)
	}
	if len(a.SMACoeffs) != o.SQ {
		return fmt.Errorf("%w: %d seasonal MA coefficients for order Q=%d", ErrArtifactInvalid, len(a.SMACoeffs), o.SQ)
	}
	if len(a.ResidualTail) != len(a.DiffTail) {
		return fmt.Errorf("%w: residual tail length %d does not match differenced tail length %d",
			ErrArtifactInvalid, len(a.ResidualTail), len(a.DiffTail))
	}
	if lag := o.maxLag(); len(a.DiffTail) < lag {
		return fmt.Errorf("%w: differenced tail holds %d values, order %s needs %d",
			ErrArtifactInvalid, len(a.DiffTail), o, lag)
	}
	// Integration needs the last raw level for each non-seasonal pass and a
	// full season of the non-seasonally differenced series for each
	// seasonal pass.
	minRaw := 0
	if o.D > 0 {
		minRaw = o.D
	}
	if o.SD > 0 {
		minRaw = o.D + o.M
	}
	if len(a.RawTail) < minRaw {
		return fmt.Errorf("%w: raw tail holds %d values, order %s needs %d",
			ErrArtifactInvalid, len(a.RawTail), o, minRaw)
	}
	if a.Variance < 0 {
		return fmt.Errorf("%w: negative residual variance", ErrArtifactInvalid)
	}
	if a.Cutoff.IsZero() {
		return fmt.Errorf("%w: missing training cutoff date", ErrArtifactInvalid)
	}
	return nil
}

// DecodeArtifact reads one msgpack-encoded artifact and validates it.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrArtifactInvalid, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// EncodeArtifact writes the artifact in its wire format. Used by test
// fixtures and by tooling that repacks upstream model exports.
func EncodeArtifact(w io.Writer, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(a)
}

// LoadArtifact opens, decodes and validates the artifact at path. A missing
// file maps to ErrArtifactNotFound so callers can distinguish "not deployed
// yet" from "deployed but broken".
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer f.Close()

	a, err := DecodeArtifact(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

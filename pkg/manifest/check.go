package manifest

import (
	"io"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/types"
)

// Check is a parsed manifest together with the outcome of live selection.
type Check struct {
	Result  `yaml:",inline"`
	Live    *types.RevisionRecord `json:"live,omitempty" yaml:"live,omitempty" toml:"live,omitempty"`
	Code    errors.ErrorCode      `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
	Problem string                `json:"problem,omitempty" yaml:"problem,omitempty" toml:"problem,omitempty"`
}

// Valid reports whether an update cycle would accept the manifest.
func (c *Check) Valid() bool {
	return c.Code == ""
}

// Err returns the selection failure, or nil for a valid manifest.
func (c *Check) Err() error {
	if c.Valid() {
		return nil
	}
	return errors.New(c.Code, c.Problem)
}

// CheckManifest parses r and selects the live record without touching any
// content. Only a failing reader is returned as an error.
func CheckManifest(r io.Reader) (*Check, error) {
	result, err := Parse(r)
	if err != nil {
		return nil, err
	}

	check := &Check{Result: *result}
	live, err := SelectLive(result.Records)
	if err != nil {
		check.Code = errors.GetErrorCode(err)
		check.Problem = err.Error()
		if coded, ok := err.(*errors.Error); ok {
			check.Problem = coded.Message
		}
		return check, nil
	}
	check.Live = &live
	return check, nil
}

// Package yamlutil decodes convert-md config files with goccy/go-yaml.
//
// Decoding is strict: an unknown key such as "secrityLevel" or a key given
// twice is an error, reported with its line and column.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize caps the config input in bytes.
var MaxInputSize = 1 << 20

var (
	ErrEmpty         = errors.New("config is empty")
	ErrNoTarget      = errors.New("config has no decode target")
	ErrInputTooLarge = errors.New("config exceeds size limit")
	ErrInvalid       = errors.New("invalid config YAML")
)

// UnmarshalStrict decodes data into v. Decode errors wrap ErrInvalid and read
// like "[3:3] unknown field \"themee\"".
func UnmarshalStrict(data []byte, v any) error {
	switch {
	case len(bytes.TrimSpace(data)) == 0:
		return ErrEmpty
	case len(data) > MaxInputSize:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	case v == nil:
		return ErrNoTarget
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, yaml.FormatError(err, false, false))
	}
	return nil
}

package config

import (
	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/go-viper/mapstructure/v2"
)

// Decode decodes the structured value under key into out.
// It reports false when key is unset, leaving out untouched.
func Decode(key string, out any) (bool, error) {
	raw := gconfig.S.Get(key)
	if raw == nil {
		return false, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return false, errors.Wrap(err, "new decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return false, errors.Wrapf(err, "decode %q", key)
	}

	return true, nil
}

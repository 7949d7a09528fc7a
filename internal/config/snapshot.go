package config

import (
	"crypto/sha256"
	"encoding/hex"

	"gopkg.in/yaml.v3"
)

// Snapshot computes a stable hash of the output-affecting configuration.
// Settings that only change how a build runs (state, metrics, watch,
// verbosity, failure policy) are left out so toggling them does not
// invalidate the rebuild cache. yaml.v3 sorts map keys, which keeps the
// encoding stable.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	shadow := *c
	shadow.State = StateConfig{}
	shadow.Metrics = MetricsConfig{}
	shadow.Watch = WatchConfig{}
	shadow.Verbose = false
	shadow.FailFast = false

	data, err := yaml.Marshal(&shadow)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

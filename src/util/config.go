package util

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Config is the optional pipeline/default-flag configuration that
// LoadConfig parses from a YAML document such as "ilc.yaml". It never
// changes IL semantics. Nothing in src/cli calls LoadConfig and there is no
// -config flag, so a Config changes neither which passes run nor what the
// CLI's flags default to.
type Config struct {
	// Passes is the default pass pipeline, e.g. ["mem2reg", "constfold",
	// "peephole", "dce"]. An empty list means "use the built-in default
	// pipeline" (spec.md §4.6).
	Passes []string `yaml:"passes"`

	// VerifyAfterEachPass, if true, runs the verifier after every pass
	// instead of only after the full pipeline. Off by default because it is
	// expensive; the pipeline is still required to leave the module
	// verifier-clean after each pass (spec.md §4.6) whether or not this flag
	// actually checks it.
	VerifyAfterEachPass bool `yaml:"verifyAfterEachPass"`

	// Trace sets the default trace mode ("il", "src" or "" for none).
	Trace string `yaml:"trace"`

	// Count and Time mirror the --count/--time CLI flags' defaults.
	Count bool `yaml:"count"`
	Time  bool `yaml:"time"`
}

// ---------------------
// ----- Functions -----
// ---------------------

// LoadConfig reads and parses the YAML configuration at path. A missing
// file is not an error: LoadConfig returns a zero-value Config so that the
// CLI's built-in defaults apply.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

package esprunner

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Options collects the runner settings. Durations are plain seconds so the
// same values work on the command line and in a YAML profile.
type Options struct {
	Port        string  `yaml:"port"`
	Baud        int     `yaml:"baud"`
	LogPath     string  `yaml:"log"`
	OpenTimeout float64 `yaml:"open_timeout_s"`
	BootWait    float64 `yaml:"boot_wait_s"`
	Quiet       float64 `yaml:"quiet_s"`
	MaxPerCmd   float64 `yaml:"max_per_cmd_s"`
}

// DefaultOptions returns the runner defaults.
func DefaultOptions() Options {
	return Options{
		Baud:        115200,
		LogPath:     "esprunner_last.log",
		OpenTimeout: 15,
		BootWait:    4,
		Quiet:       0.6,
		MaxPerCmd:   6,
	}
}

// LoadProfile overlays the YAML profile at path onto opts. Fields absent
// from the file keep their current values, so explicit flags parsed after
// the profile win.
func LoadProfile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading profile %s", path)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return errors.Wrapf(err, "parsing profile %s", path)
	}
	return nil
}

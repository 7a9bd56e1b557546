package optimize

import (
	"os"

	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"gopkg.in/yaml.v3"
)

// GridConfig is a strategy's hyperparameter grid described as data,
// letting a batch or CI run override the defaults a Strategy declares
// in code without recompiling it.
type GridConfig struct {
	Strategy       string          `yaml:"strategy"`
	Hyperparameters []gridParamYAML `yaml:"hyperparameters"`
}

type gridParamYAML struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Step    float64 `yaml:"step"`
	Default float64 `yaml:"default"`
}

// LoadGridConfig reads a YAML grid definition from path and converts it
// into hyperparam.Spec values.
func LoadGridConfig(path string) (GridConfig, []hyperparam.Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GridConfig{}, nil, engineerr.New(engineerr.OpConfig, path, err)
	}

	var cfg GridConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return GridConfig{}, nil, engineerr.New(engineerr.OpConfig, path, err)
	}

	specs := make([]hyperparam.Spec, 0, len(cfg.Hyperparameters))
	for _, p := range cfg.Hyperparameters {
		specs = append(specs, hyperparam.Spec{
			Name:    p.Name,
			Type:    hyperparam.Type(p.Type),
			Min:     p.Min,
			Max:     p.Max,
			Step:    p.Step,
			Default: p.Default,
		})
	}
	return cfg, specs, nil
}

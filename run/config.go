package run

import (
	"fmt"
	"math"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/input/recordreader"
	"github.com/relex/udpsender/output/udpsender"
	"github.com/relex/udpsender/util"
)

// Config defines the root of udpsender config file
type Config struct {
	Output udpsender.Config `yaml:"output"`
	Inputs []InputConfig    `yaml:"inputs"`
}

// InputConfig defines a TCP listener which receives records to be forwarded
type InputConfig struct {
	Address     string              `yaml:"address"`     // TCP address to listen on, port may be 0
	Format      recordreader.Format `yaml:"format"`      // json or msgpack
	MaxLineSize datasize.ByteSize   `yaml:"maxLineSize"` // max length of a JSON line
}

// LoadConfigFile loads config from the path and verify all configurations
func LoadConfigFile(filepath string) (*Config, error) {
	cref := &Config{
		Output: udpsender.DefaultConfig(),
		Inputs: nil,
	}
	if err := util.UnmarshalYamlFile(filepath, cref); err != nil {
		return nil, err
	}
	if err := cref.Output.VerifyConfig(); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	for i := range cref.Inputs {
		if err := cref.Inputs[i].verify(); err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}
	logger.Infof("loaded config: output=%s inputs=%d", cref.Output.String(), len(cref.Inputs))
	return cref, nil
}

func (cfg *InputConfig) verify() error {
	if len(strings.TrimSpace(cfg.Address)) == 0 {
		return fmt.Errorf(".address is unspecified")
	}
	if len(cfg.Format) == 0 {
		cfg.Format = recordreader.FormatJSON
	}
	if cfg.MaxLineSize == 0 {
		cfg.MaxLineSize = datasize.ByteSize(defs.InputMaxLineSize)
	}
	if cfg.MaxLineSize.Bytes() > math.MaxInt32 {
		return fmt.Errorf(".maxLineSize %s exceeds %d bytes", cfg.MaxLineSize.String(), math.MaxInt32)
	}
	return nil
}

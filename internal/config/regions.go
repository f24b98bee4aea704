package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Region is one state and the fire seasons to process for it.
type Region struct {
	Code  string `yaml:"code" mapstructure:"code"`
	Name  string `yaml:"name" mapstructure:"name"`
	Years []int  `yaml:"years" mapstructure:"years"`
}

type regionFile struct {
	States []Region `yaml:"states" mapstructure:"states"`
}

// LoadRegions reads a region list ({"states":[{code,name,years}]}) from a
// JSON or YAML file. The format follows the file extension.
func LoadRegions(path string) ([]Region, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, eris.Wrapf(err, "config: read regions %s", path)
	}

	var rf regionFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal regions")
	}

	for i, r := range rf.States {
		r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
		if r.Code == "" {
			return nil, eris.Errorf("config: region %d has no code", i)
		}
		rf.States[i] = r
	}
	return rf.States, nil
}

// Package config reads daemon configuration from HCL or YAML files.
// Format is chosen by file extension: .yaml/.yml is YAML, anything else HCL.
// Later sources and includes overwrite values set by earlier ones.
package config

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/sirf/frame"
	"github.com/temoto/sirf/helpers"
	"github.com/temoto/sirf/log2"
	"github.com/temoto/sirf/tele"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// includeSeen contains normalized paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include" yaml:"include"`

	Device struct {
		Path      string `hcl:"path" yaml:"path"`
		Baud      int    `hcl:"baud" yaml:"baud"`
		ReadLimit int    `hcl:"read_limit" yaml:"read_limit"`
	} `hcl:"device" yaml:"device"`

	Log struct {
		Debug bool `hcl:"debug" yaml:"debug"`
	} `hcl:"log" yaml:"log"`

	Tele tele.Config `hcl:"tele" yaml:"tele"`
}

type Source struct {
	Name     string `hcl:"name,key" yaml:"name"`
	Optional bool   `hcl:"optional" yaml:"optional"`
}

func isYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) unmarshal(name string, b []byte) error {
	if isYAML(name) {
		return yaml.Unmarshal(b, c)
	}
	return hcl.Unmarshal(b, c)
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = c.unmarshal(norm, bs); err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig with OsFullReader resolves includes relative to first name.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.NotValidf("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names = append([]string{name}, names[1:]...)
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return c, err
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	if c.Device.ReadLimit < 0 || c.Device.ReadLimit > frame.MaxPayload {
		return errors.NotValidf("config device.read_limit=%d range=[0,%d]", c.Device.ReadLimit, frame.MaxPayload)
	}
	if c.Device.Baud < 0 {
		return errors.NotValidf("config device.baud=%d", c.Device.Baud)
	}
	return nil
}

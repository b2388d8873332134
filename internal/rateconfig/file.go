package rateconfig

import (
	"sort"

	"github.com/BurntSushi/toml"

	apperrors "github.com/callcharge-production/internal/errors"
)

type file struct {
	Tenants map[string]Configuration `toml:"tenant"`
}

// LoadFile reads the [tenant.<name>] tables of a TOML file.
func LoadFile(path string) (map[string]*Configuration, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, apperrors.Config("read rate configuration "+path, err)
	}
	return f.configs(), nil
}

// Decode is LoadFile for in-memory TOML.
func Decode(data string) (map[string]*Configuration, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, apperrors.Config("decode rate configuration", err)
	}
	return f.configs(), nil
}

func (f file) configs() map[string]*Configuration {
	out := make(map[string]*Configuration, len(f.Tenants))
	for name, cfg := range f.Tenants {
		c := cfg
		if c.Tenant == "" {
			c.Tenant = name
		}
		out[c.Tenant] = &c
	}
	return out
}

// Tenants returns the sorted tenant names of configs.
func Tenants(configs map[string]*Configuration) []string {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

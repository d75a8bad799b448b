// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package scheme

import (
	_ "embed"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultSchemeName is used when no scheme is selected.
const DefaultSchemeName = "sf-cr"

//go:embed schemes.yaml
var builtinSchemesYaml []byte

var (
	validate = validator.New()
	builtin  *Registry
)

func init() {
	var err error
	if builtin, err = ParseConfig(builtinSchemesYaml); err != nil {
		panic(err)
	}
}

// Config is the yaml scheme configuration file.
type Config struct {
	Schemes []*Scheme `yaml:"schemes" validate:"required,min=1,dive,required"`
}

// Registry is a read-only set of schemes by name.
type Registry struct {
	schemes map[string]*Scheme
	order   []string
}

// Builtin returns the built-in schemes.
func Builtin() *Registry {
	return builtin
}

// ParseConfig parses and validates a yaml scheme configuration.
func ParseConfig(data []byte) (*Registry, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse scheme config")
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid scheme config")
	}

	r := &Registry{schemes: make(map[string]*Scheme, len(cfg.Schemes))}
	for _, s := range cfg.Schemes {
		if _, ok := r.schemes[s.Name]; ok {
			return nil, errors.Errorf("duplicate scheme %q", s.Name)
		}
		if err := s.check(); err != nil {
			return nil, err
		}
		r.schemes[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return r, nil
}

// LoadConfig reads a yaml scheme configuration file.
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scheme config %s", path)
	}
	r, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scheme config %s", path)
	}
	return r, nil
}

// Get returns the named scheme.
func (r *Registry) Get(name string) (*Scheme, error) {
	if s, ok := r.schemes[name]; ok {
		return s, nil
	}
	return nil, errors.Errorf("unknown scheme %q", name)
}

// Names returns the scheme names in definition order.
func (r *Registry) Names() []string {
	ret := make([]string, len(r.order))
	copy(ret, r.order)
	return ret
}

// Merge returns a registry holding the schemes of r overridden by those of other.
func (r *Registry) Merge(other *Registry) *Registry {
	m := &Registry{schemes: make(map[string]*Scheme, len(r.schemes)+len(other.schemes))}
	for _, name := range r.order {
		m.schemes[name] = r.schemes[name]
		m.order = append(m.order, name)
	}
	for _, name := range other.order {
		if _, ok := m.schemes[name]; !ok {
			m.order = append(m.order, name)
		}
		m.schemes[name] = other.schemes[name]
	}
	return m
}

// Default returns the default built-in scheme.
func Default() *Scheme {
	s, err := builtin.Get(DefaultSchemeName)
	if err != nil {
		panic(err)
	}
	return s
}

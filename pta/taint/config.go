package taint

import (
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// MethodMatch names a method a taint rule applies to. Desc is optional: an
// empty Desc matches every overload of Class.Method, mirroring how a YAML
// config author would rather not spell out a full descriptor for a method
// with a single overload.
type MethodMatch struct {
	Class  string `yaml:"class"`
	Method string `yaml:"method"`
	Desc   string `yaml:"desc,omitempty"`
}

func (m MethodMatch) matchesClass(className string) bool { return m.Class == className }

func (m MethodMatch) matchesSig(name, desc string) bool {
	if m.Method != name {
		return false
	}
	return m.Desc == "" || m.Desc == desc
}

// SourceRule marks a method's return value as a taint source of Type.
type SourceRule struct {
	MethodMatch `yaml:",inline"`
	Type        string `yaml:"type"`
}

// SinkRule marks an argument (or, with Arg -1, the receiver) of a method
// call as security-sensitive.
type SinkRule struct {
	MethodMatch `yaml:",inline"`
	Arg         int `yaml:"arg"`
}

// slot names one of a call's operands: "base", "result", or "arg:<i>".
const (
	slotBase   = "base"
	slotResult = "result"
)

// TransferRule propagates taint across a call whose body isn't (or can't
// be) analyzed: from From to To, e.g. a StringBuilder.append carrying
// taint from its argument onto its receiver.
type TransferRule struct {
	MethodMatch `yaml:",inline"`
	From        string `yaml:"from"`
	To          string `yaml:"to"`
}

// Config is the full set of taint rules, loaded from YAML the way
// go-flow-levee's internal/pkg/config loads its source/sink/sanitizer
// lists.
type Config struct {
	Sources   []SourceRule   `yaml:"sources"`
	Sinks     []SinkRule     `yaml:"sinks"`
	Transfers []TransferRule `yaml:"transfers"`
}

// LoadConfig parses a taint config from its YAML text.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, xerrors.Errorf("parsing taint config: %w", err)
	}
	return &cfg, nil
}

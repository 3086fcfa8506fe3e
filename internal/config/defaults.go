package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed assets/install_defaults.yml
var embeddedDefaults []byte

// Sections of the defaults file.
const (
	SectionDatabase = "database"
	SectionInstall  = "install"
	SectionConfig   = "config"
)

// FlagSections are the sections whose options become flags, in order.
var FlagSections = []string{SectionDatabase, SectionInstall}

// Option modes.
const (
	ModeNone     = "none"
	ModeRequired = "required"
	ModeOptional = "optional"
)

// Option is one configurable installer option.
type Option struct {
	Default     string `yaml:"default"`
	Mode        string `yaml:"mode"`
	Description string `yaml:"description"`
	Shortcut    string `yaml:"shortcut"`
	ConfigKey   string `yaml:"config-key"`
}

// UnmarshalYAML accepts either a mapping or a bare scalar default.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*o = Option{Default: node.Value}
		return nil
	case yaml.MappingNode:
		type plain Option
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*o = Option(p)
		return nil
	}
	return fmt.Errorf("line %d: option must be a scalar or a mapping", node.Line)
}

// IsSwitch reports whether the option is a boolean flag.
func (o Option) IsSwitch() bool {
	return o.Mode == ModeNone
}

// NamedOption is an option with its section and flag name.
type NamedOption struct {
	Section string
	Name    string
	Option
}

// FlagName returns "<section>-<name>".
func (n NamedOption) FlagName() string {
	return n.Section + "-" + n.Name
}

// Defaults is the parsed defaults file.
type Defaults struct {
	Database map[string]Option `yaml:"database"`
	Install  map[string]Option `yaml:"install"`
	Config   map[string]string `yaml:"config"`
}

// EmbeddedDefaults parses the defaults compiled into the binary.
func EmbeddedDefaults() (*Defaults, error) {
	return ParseDefaults(embeddedDefaults)
}

// ReadDefaults parses a defaults file from disk.
func ReadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("installation defaults file not found: %w", err)
	}
	return ParseDefaults(data)
}

// ParseDefaults parses defaults YAML. All three sections are required.
func ParseDefaults(data []byte) (*Defaults, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	for _, section := range []string{SectionDatabase, SectionInstall, SectionConfig} {
		if _, ok := raw[section]; !ok {
			return nil, fmt.Errorf("missing %q section from installation defaults file", section)
		}
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	if d.Config == nil {
		d.Config = map[string]string{}
	}

	for _, opt := range d.Options() {
		switch opt.Mode {
		case "", ModeNone, ModeRequired, ModeOptional:
		default:
			return nil, fmt.Errorf("option %s: unknown mode %q", opt.FlagName(), opt.Mode)
		}
		if len(opt.Shortcut) > 1 {
			return nil, fmt.Errorf("option %s: shortcut must be one letter", opt.FlagName())
		}
	}

	return &d, nil
}

// Options returns every flag option, by section then name.
func (d *Defaults) Options() []NamedOption {
	var out []NamedOption
	for _, section := range FlagSections {
		opts := d.section(section)
		names := make([]string, 0, len(opts))
		for name := range opts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, NamedOption{Section: section, Name: name, Option: opts[name]})
		}
	}
	return out
}

func (d *Defaults) section(name string) map[string]Option {
	switch name {
	case SectionDatabase:
		return d.Database
	case SectionInstall:
		return d.Install
	}
	return nil
}

// Values builds the flat configuration map: the static config section,
// then every option with a config-key set to its flag value (lookup) or
// its default. A host value also yields setup_site_url.
func (d *Defaults) Values(lookup func(flag string) (string, bool)) map[string]string {
	values := make(map[string]string, len(d.Config))
	for k, v := range d.Config {
		values[k] = v
	}

	for _, opt := range d.Options() {
		if opt.ConfigKey == "" {
			continue
		}
		v := opt.Default
		if lookup != nil {
			if fv, ok := lookup(opt.FlagName()); ok {
				v = fv
			}
		}
		values[opt.ConfigKey] = v
	}

	if host, ok := values[KeyHost]; ok && host != "" {
		values[KeySiteURL] = "http://" + host
	}
	return values
}

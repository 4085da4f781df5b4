package policy

import (
	"fmt"
	"io"

	"github.com/aretw0/pitstop/pkg/domain"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a standalone policy file:
//
//	roles:
//	  SchedulingAgent: [get_service_slots, book_appointment]
type File struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadYAML reads a policy file.
func LoadYAML(r io.Reader) (*Policy, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	return FromStrings(f.Roles)
}

// FromStrings builds a Policy from an untyped table, as found in config files.
func FromStrings(table map[string][]string) (*Policy, error) {
	typed := make(map[domain.Role][]domain.Capability, len(table))
	for role, caps := range table {
		list := make([]domain.Capability, 0, len(caps))
		for _, c := range caps {
			list = append(list, domain.Capability(c))
		}
		typed[domain.Role(role)] = list
	}
	return New(typed)
}

// MarshalYAML renders p in the File layout.
func (p *Policy) MarshalYAML() (any, error) {
	f := File{Roles: make(map[string][]string, len(p.allowed))}
	for _, r := range p.Roles() {
		caps := p.Capabilities(r)
		names := make([]string, len(caps))
		for i, c := range caps {
			names[i] = string(c)
		}
		f.Roles[string(r)] = names
	}
	return f, nil
}

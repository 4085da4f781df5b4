package policy

import (
	"fmt"
	"sort"

	"github.com/aretw0/pitstop/pkg/domain"
)

// Policy is an immutable mapping from role to the set of capabilities it may invoke.
type Policy struct {
	allowed map[domain.Role]map[domain.Capability]struct{}
}

// New builds a Policy from a static table. The table is copied; later changes
// to it have no effect. Capabilities outside the closed set are rejected.
func New(table map[domain.Role][]domain.Capability) (*Policy, error) {
	allowed := make(map[domain.Role]map[domain.Capability]struct{}, len(table))
	for role, caps := range table {
		if role == "" {
			return nil, fmt.Errorf("policy: empty role name")
		}
		set := make(map[domain.Capability]struct{}, len(caps))
		for _, c := range caps {
			if !c.Valid() {
				return nil, fmt.Errorf("policy: role %s lists unknown capability %q", role, c)
			}
			set[c] = struct{}{}
		}
		allowed[role] = set
	}
	return &Policy{allowed: allowed}, nil
}

// MustNew is like New but panics on an invalid table. Use it for tables
// written in code.
func MustNew(table map[domain.Role][]domain.Capability) *Policy {
	p, err := New(table)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultTable returns the allow-list of the maintenance workflow.
// Note: get_payment_history is granted to no role.
func DefaultTable() map[domain.Role][]domain.Capability {
	return map[domain.Role][]domain.Capability{
		domain.RoleDataAnalysis:       {domain.CapReadCSV},
		domain.RoleDiagnosis:          {domain.CapReadCSV, domain.CapLLMInvoke},
		domain.RoleCustomerEngagement: {domain.CapLLMInvoke},
		domain.RoleScheduling:         {domain.CapGetServiceSlots, domain.CapBookAppointment},
		domain.RoleFeedback:           {domain.CapReadCSV, domain.CapWriteCSV, domain.CapLLMInvoke},
	}
}

// Default returns the Policy built from DefaultTable.
func Default() *Policy {
	return MustNew(DefaultTable())
}

// Permits reports whether role may invoke capability. It is pure.
func (p *Policy) Permits(role domain.Role, capability domain.Capability) bool {
	if p == nil {
		return false
	}
	_, ok := p.allowed[role][capability]
	return ok
}

// Roles returns the configured roles sorted by name.
func (p *Policy) Roles() []domain.Role {
	roles := make([]domain.Role, 0, len(p.allowed))
	for r := range p.allowed {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Capabilities returns the capabilities granted to role, in the canonical
// order of domain.Capabilities.
func (p *Policy) Capabilities(role domain.Role) []domain.Capability {
	set := p.allowed[role]
	var out []domain.Capability
	for _, c := range domain.Capabilities() {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Table returns a copy of the policy as a plain table.
func (p *Policy) Table() map[domain.Role][]domain.Capability {
	table := make(map[domain.Role][]domain.Capability, len(p.allowed))
	for _, r := range p.Roles() {
		table[r] = p.Capabilities(r)
	}
	return table
}

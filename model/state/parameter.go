package state

// Parameter represents a named value, used for scope data objects and
// variable assignments.
type Parameter struct {
	Name     string      `json:"name" yaml:"name"`
	Value    interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	DataType string      `json:"dataType,omitempty" yaml:"dataType,omitempty"`
}

// Parameters is an ordered collection of named values
type Parameters []*Parameter

// Add appends a parameter to the collection
func (p *Parameters) Add(name string, value interface{}) {
	*p = append(*p, &Parameter{
		Name:  name,
		Value: value,
	})
}

// Set replaces the value of an existing parameter in place or appends a new one,
// so the original position is preserved.
func (p *Parameters) Set(name string, value interface{}) {
	if param, ok := p.Get(name); ok {
		param.Value = value
		return
	}
	p.Add(name, value)
}

// Get retrieves a parameter by name
func (p Parameters) Get(name string) (*Parameter, bool) {
	for _, param := range p {
		if param.Name == name {
			return param, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the collection (values are copied by reference)
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	ret := make(Parameters, 0, len(p))
	for _, param := range p {
		cp := *param
		ret = append(ret, &cp)
	}
	return ret
}

// ToMap converts Parameters to a map
func (p Parameters) ToMap() map[string]interface{} {
	result := make(map[string]interface{})
	for _, param := range p {
		result[param.Name] = param.Value
	}
	return result
}

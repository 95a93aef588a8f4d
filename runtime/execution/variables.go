package execution

import (
	"fmt"
	"reflect"

	"github.com/viant/structology/conv"
)

var converter = conv.NewConverter(conv.DefaultOptions())

// SetVariable sets an instance-wide variable; it reports whether the variable was new
func (p *Process) SetVariable(name string, value interface{}) bool {
	if p.Variables == nil {
		p.Variables = map[string]interface{}{}
	}
	_, exists := p.Variables[name]
	p.Variables[name] = value
	return !exists
}

// SetLocal sets an execution-local variable; it reports whether the variable was new
func (p *Process) SetLocal(executionID, name string, value interface{}) (bool, error) {
	target := p.Execution(executionID)
	if target == nil {
		return false, fmt.Errorf("execution %v not found", executionID)
	}
	if target.Variables == nil {
		target.Variables = map[string]interface{}{}
	}
	_, exists := target.Variables[name]
	target.Variables[name] = value
	return !exists, nil
}

// Variable resolves a variable as seen from executionID: locals of the
// execution and its ancestors shadow instance variables, nearest first.
func (p *Process) Variable(executionID, name string) (interface{}, bool) {
	if current := p.Execution(executionID); current != nil {
		if value, ok := current.LocalVariable(name); ok {
			return value, true
		}
		for _, ancestor := range p.Ancestors(executionID) {
			if value, ok := ancestor.LocalVariable(name); ok {
				return value, true
			}
		}
	}
	value, ok := p.Variables[name]
	return value, ok
}

// VisibleVariables returns the merged view of variables seen from executionID
func (p *Process) VisibleVariables(executionID string) map[string]interface{} {
	ret := cloneMap(p.Variables)
	if ret == nil {
		ret = map[string]interface{}{}
	}
	chain := append([]*Execution{}, p.Ancestors(executionID)...)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Variables {
			ret[k] = v
		}
	}
	if current := p.Execution(executionID); current != nil {
		for k, v := range current.Variables {
			ret[k] = v
		}
	}
	return ret
}

// TypedVariable resolves a variable and converts it to T
func TypedVariable[T any](p *Process, executionID, name string) (T, error) {
	var ret T
	value, ok := p.Variable(executionID, name)
	if !ok {
		return ret, fmt.Errorf("variable %v not found", name)
	}
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	if reflect.TypeOf(ret) == nil {
		return ret, fmt.Errorf("variable %v: unsupported target type", name)
	}
	if err := converter.Convert(value, &ret); err != nil {
		return ret, fmt.Errorf("variable %v: %w", name, err)
	}
	return ret, nil
}

// IsTruthy reports whether a variable value counts as true for flow conditions
func IsTruthy(value interface{}) bool {
	switch actual := value.(type) {
	case nil:
		return false
	case bool:
		return actual
	case string:
		return actual != "" && actual != "false" && actual != "0"
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0
	}
	return true
}

package criteria

import (
	"github.com/viant/shift/service/dao"
)

// Matches reports whether every parameter matches the named field value.
// A parameter value may be a string or a list of accepted strings; unknown
// parameter names do not restrict the result.
func Matches(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		switch expected := parameter.Value.(type) {
		case string:
			if actual != expected {
				return false
			}
		case []string:
			found := false
			for _, candidate := range expected {
				if actual == candidate {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

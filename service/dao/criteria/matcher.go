// Package criteria evaluates List parameters against record fields.
package criteria

import (
	"github.com/viant/hds/service/dao"
)

// Match reports whether value satisfies every parameter called name. Other
// parameters are ignored, so does a parameter without values.
func Match(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name || len(parameter.Values) == 0 {
			continue
		}
		if !parameter.Accepts(value) {
			return false
		}
	}
	return true
}

package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/hds/service/dao"
)

func TestMatch(t *testing.T) {
	testCases := []struct {
		description string
		value       string
		parameters  []*dao.Parameter
		expect      bool
	}{
		{description: "no parameters", value: "completed", expect: true},
		{description: "single value match", value: "completed", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "completed")}, expect: true},
		{description: "single value mismatch", value: "failed", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "completed")}},
		{description: "any of", value: "failed", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "completed", "failed")}, expect: true},
		{description: "other parameter", value: "failed", parameters: []*dao.Parameter{dao.NewParameter("Priority", "1")}, expect: true},
		{description: "empty values", value: "failed", parameters: []*dao.Parameter{dao.NewParameter("Outcome")}, expect: true},
		{description: "nil parameter", value: "failed", parameters: []*dao.Parameter{nil}, expect: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, Match("Outcome", testCase.value, testCase.parameters))
		})
	}
}

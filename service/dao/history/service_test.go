package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/hds/model/process"
	"github.com/viant/hds/service/dao"
)

func TestService_List(t *testing.T) {
	ctx := context.Background()
	srv := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []*process.Record{
		{ID: "c", Seq: 3, Outcome: process.OutcomeFailed, FinishedAt: base.Add(2 * time.Second)},
		{ID: "a", Seq: 1, Outcome: process.OutcomeCompleted, FinishedAt: base},
		{ID: "b", Seq: 2, Outcome: process.OutcomeCompleted, FinishedAt: base.Add(time.Second)},
	}
	for _, record := range records {
		require.NoError(t, srv.Save(ctx, record))
	}

	testCases := []struct {
		description string
		parameters  []*dao.Parameter
		expect      []string
	}{
		{description: "all", expect: []string{"a", "b", "c"}},
		{description: "completed", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "completed")}, expect: []string{"a", "b"}},
		{description: "failed", parameters: []*dao.Parameter{dao.NewParameter("Outcome", "failed")}, expect: []string{"c"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual, err := srv.List(ctx, testCase.parameters...)
			require.NoError(t, err)
			var ids []string
			for _, record := range actual {
				ids = append(ids, record.ID)
			}
			assert.Equal(t, testCase.expect, ids)
		})
	}
}

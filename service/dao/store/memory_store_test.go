package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/hds/service/dao"
)

type record struct {
	ID    int
	Label string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[int, record](func(r *record) int { return r.ID },
		WithFilter[int, record](func(r *record, parameters []*dao.Parameter) bool {
			for _, parameter := range parameters {
				if parameter.Name == "Label" && !parameter.Accepts(r.Label) {
					return false
				}
			}
			return true
		}))

	assert.True(t, errors.Is(s.Save(ctx, nil), dao.ErrNilEntity))
	assert.True(t, errors.Is(s.Save(ctx, &record{}), dao.ErrInvalidID))
	require.NoError(t, s.Save(ctx, &record{ID: 1, Label: "a"}))
	require.NoError(t, s.Save(ctx, &record{ID: 2, Label: "b"}))
	assert.Equal(t, 2, s.Len())

	loaded, err := s.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.Label)

	_, err = s.Load(ctx, 3)
	assert.True(t, errors.Is(err, dao.ErrNotFound))

	list, err := s.List(ctx, dao.NewParameter("Label", "a"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ID)

	require.NoError(t, s.Delete(ctx, 1))
	assert.True(t, errors.Is(s.Delete(ctx, 1), dao.ErrNotFound))
	list, _ = s.List(ctx)
	assert.Len(t, list, 1)
}

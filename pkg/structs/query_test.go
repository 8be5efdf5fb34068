package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuerySanitize(t *testing.T) {
	cases := []struct {
		Name   string
		In     *Query
		Expect *Query
	}{
		{
			Name:   "Empty",
			In:     &Query{},
			Expect: &Query{Limit: queryLimitDefault},
		},
		{
			Name:   "LimitCapped",
			In:     &Query{Limit: queryLimitMax + 1},
			Expect: &Query{Limit: queryLimitMax},
		},
		{
			Name:   "NegativeOffsetAndBeforeID",
			In:     &Query{Offset: -1, BeforeID: -5},
			Expect: &Query{Limit: queryLimitDefault},
		},
		{
			Name:   "EmptySlicesDropped",
			In:     &Query{JobIDs: []int64{}, States: []State{}, Results: []Result{}},
			Expect: &Query{Limit: queryLimitDefault},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			c.In.Sanitize()

			assert.Equal(t, c.Expect, c.In)
		})
	}
}

package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromQueryDefaults(t *testing.T) {
	params := FromQuery(url.Values{})
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, 0, params.Offset)
}

func TestFromQueryComputesOffset(t *testing.T) {
	params := FromQuery(url.Values{"page": {"3"}, "limit": {"25"}})
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, 50, params.Offset)
}

func TestFromQueryClampsAndIgnoresGarbage(t *testing.T) {
	params := FromQuery(url.Values{"page": {"-2"}, "limit": {"5000"}})
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, MaxLimit, params.Limit)

	params = FromQuery(url.Values{"page": {"abc"}, "limit": {"x"}})
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
}

func TestHasNext(t *testing.T) {
	assert.True(t, HasNext(0, 2, 3))
	assert.False(t, HasNext(2, 2, 3))
	assert.False(t, HasNext(0, 10, 10))
}

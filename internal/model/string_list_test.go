package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_ScanNormalizes(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want StringList
	}{
		{"null", nil, StringList{}},
		{"bytes", []byte(`["a","b"]`), StringList{"a", "b"}},
		{"string", `["x"]`, StringList{"x"}},
		{"malformed", `not json`, StringList{}},
		{"json null", `null`, StringList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, l.Scan(tt.src))
			assert.Equal(t, tt.want, l)
		})
	}
}

func TestStringList_ScanRejectsUnknownType(t *testing.T) {
	var l StringList
	assert.Error(t, l.Scan(42))
}

func TestStringList_NilEncodesAsEmptyArray(t *testing.T) {
	var l StringList

	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	b, err := json.Marshal(Product{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"image_urls":[]`)
	assert.Contains(t, string(b), `"price_before_discount":null`)
}

func TestProduct_FirstImage(t *testing.T) {
	assert.Empty(t, (&Product{}).FirstImage())
	assert.Equal(t, "a.jpg", (&Product{ImageURLs: StringList{"a.jpg", "b.jpg"}}).FirstImage())
}

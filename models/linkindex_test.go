package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkIndexDedupe(t *testing.T) {
	idx := NewLinkIndex()
	assert.True(t, idx.Add("maipu", "/a"))
	assert.True(t, idx.Add("maipu", "/b"))
	assert.False(t, idx.Add("maipu", "/a"))
	assert.True(t, idx.Add("nunoa", "/a"))

	assert.Equal(t, []string{"/a", "/b"}, idx.Links("maipu"))
	assert.Equal(t, []string{"/a"}, idx.Links("nunoa"))
	assert.Equal(t, []string{"maipu", "nunoa"}, idx.Comunas())
	assert.Equal(t, 3, idx.Len())
}

func TestLinkIndexJSONKeepsOrder(t *testing.T) {
	idx := NewLinkIndex()
	idx.Add("vitacura", "/x")
	idx.Add("maipu", "/a")
	idx.Add("maipu", "/b")

	raw, err := json.Marshal(idx)
	require.NoError(t, err)
	assert.Equal(t, `{"vitacura":["/x"],"maipu":["/a","/b"]}`, string(raw))

	var back LinkIndex
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []string{"vitacura", "maipu"}, back.Comunas())
	assert.Equal(t, []string{"/a", "/b"}, back.Links("maipu"))
}

func TestLinkIndexUnmarshalRejectsArray(t *testing.T) {
	var idx LinkIndex
	assert.Error(t, json.Unmarshal([]byte(`["/a"]`), &idx))
}

func TestLinkIndexEmptyJSON(t *testing.T) {
	raw, err := json.Marshal(NewLinkIndex())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(raw))
}

func TestLinkIndexEnsureKeepsEmptyComuna(t *testing.T) {
	idx := NewLinkIndex()
	idx.Ensure("vitacura")
	idx.Add("maipu", "/a")
	idx.Ensure("maipu")

	assert.Equal(t, []string{"vitacura", "maipu"}, idx.Comunas())
	assert.Empty(t, idx.Links("vitacura"))
	assert.Equal(t, []string{"/a"}, idx.Links("maipu"))

	raw, err := json.Marshal(idx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vitacura":[],"maipu":["/a"]}`, string(raw))
}

// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentPreservesOrder(t *testing.T) {
	t.Parallel()

	in := `{"z":1,"a":{"y":[true,null,"x"],"b":2.50},"m":"<tag>&"}`
	doc := mustParse(t, in)

	require.Equal(t, KindObject, doc.Kind)
	keys := make([]string, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)

	out, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestParseDocumentNumbersAreVerbatim(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"big":12345678901234567890,"f":1e-7}`)
	assert.Equal(t, "12345678901234567890", doc.Get("big").Num.String())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"big":12345678901234567890,"f":1e-7}`, string(out))
}

func TestParseDocumentDuplicateKeys(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"a":1,"b":2,"a":3}`)
	require.Len(t, doc.Fields, 2)
	assert.Equal(t, "a", doc.Fields[0].Key)
	assert.Equal(t, "3", doc.Get("a").Num.String())
}

func TestParseDocumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ``},
		{name: "trailing value", input: `{"a":1} {"b":2}`},
		{name: "unterminated", input: `{"a":[1,2}`},
		{name: "bare word", input: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDocument([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestNodeUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var wrapper struct {
		Document *Node `json:"document"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"document":{"b":"x","a":[1]}}`), &wrapper))
	require.NotNil(t, wrapper.Document)
	assert.Equal(t, "b", wrapper.Document.Fields[0].Key)
	assert.Equal(t, "x", wrapper.Document.Get("b").Str)
}

func TestNodeSetAndGet(t *testing.T) {
	t.Parallel()

	doc := Object(Field{Key: "a", Value: String("1")})
	doc.Set("b", Number("2"))
	doc.Set("a", String("replaced"))

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"replaced","b":2}`, string(out))

	assert.Nil(t, doc.Get("missing"))
	assert.Nil(t, String("x").Get("a"))
	assert.False(t, doc.Get("missing").IsString())
}

func TestNodeCloneIsDeep(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"images":["data:a"],"nested":{"k":"v"}}`)
	c := doc.Clone()

	c.Get("images").Items[0].Str = "changed"
	c.Get("nested").Set("k", String("changed"))

	assert.Equal(t, "data:a", doc.Get("images").Items[0].Str)
	assert.Equal(t, "v", doc.Get("nested").Get("k").Str)
}

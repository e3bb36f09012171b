package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectContext_UnmarshalJSON(t *testing.T) {
	var p ProjectContext
	require.NoError(t, json.Unmarshal([]byte(`{"userId":"u1","name":"My Site!","createdAt":"2024-01-05"}`), &p))
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "My Site!", p.Name)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), p.CreatedAt)

	require.NoError(t, json.Unmarshal([]byte(`{"userId":"u1","createdAt":"2024-01-05T10:30:00Z"}`), &p))
	assert.Equal(t, 10, p.CreatedAt.Hour())

	assert.Error(t, json.Unmarshal([]byte(`{"userId":"u1","createdAt":"yesterday"}`), &p))
}

func TestProjectContext_Validate(t *testing.T) {
	ok := ProjectContext{UserID: "u1", Name: "x", CreatedAt: time.Now()}
	assert.NoError(t, ok.Validate())
	assert.Error(t, ProjectContext{Name: "x", CreatedAt: time.Now()}.Validate())
	assert.Error(t, ProjectContext{UserID: "u1"}.Validate())
}

package statuscode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-status/internal/passportstatus/models"
)

func TestLoadEmbedded(t *testing.T) {
	table, err := LoadEmbedded()
	require.NoError(t, err)

	all := table.All()
	require.Len(t, all, 7)

	processed, ok := table.ByCode("file_processed")
	require.True(t, ok)
	assert.Equal(t, "FILE_PROCESSED", processed.Code)

	byID, ok := table.ByID(processed.ID)
	require.True(t, ok)
	assert.Equal(t, processed, byID)

	byBusiness, ok := table.ByBusinessCode(processed.BusinessCode)
	require.True(t, ok)
	assert.Equal(t, processed, byBusiness)

	_, ok = table.ByID("missing")
	assert.False(t, ok)
}

func TestResolveBusinessCode(t *testing.T) {
	table, err := LoadEmbedded()
	require.NoError(t, err)

	c, ok := table.ResolveBusinessCode("6")
	assert.True(t, ok)
	assert.Equal(t, "PASSPORT_WILL_BE_ISSUED", c.Code)

	c, ok = table.ResolveBusinessCode("999")
	assert.False(t, ok)
	assert.Equal(t, Unknown, c.Code)
}

func TestNewRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		codes []models.StatusCode
	}{
		{
			name: "duplicate id",
			codes: []models.StatusCode{
				{ID: "1", Code: "A"},
				{ID: "1", Code: "B"},
			},
		},
		{
			name: "duplicate code",
			codes: []models.StatusCode{
				{ID: "1", Code: "A"},
				{ID: "2", Code: "a"},
			},
		},
		{
			name: "duplicate business code",
			codes: []models.StatusCode{
				{ID: "1", Code: "A", BusinessCode: "10"},
				{ID: "2", Code: "B", BusinessCode: "10"},
			},
		},
		{
			name:  "missing id",
			codes: []models.StatusCode{{Code: "A"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.codes)
			assert.Error(t, err)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("codes: [::"))
	assert.Error(t, err)
}

func TestLoadFileEmptyPathUsesEmbedded(t *testing.T) {
	table, err := LoadFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, table.All())
}

package resource

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyFilterSelectsEverythingNewestFirst(t *testing.T) {
	q, err := buildSearchQuery(Filter{})
	require.NoError(t, err)

	assert.NotContains(t, q.text, "WHERE")
	assert.NotContains(t, q.text, "LIMIT")
	assert.True(t, strings.HasSuffix(q.text, "ORDER BY r.created_at DESC, r.id"))
	assert.Empty(t, q.args)
}

func TestAllPredicatesAreConjoined(t *testing.T) {
	q, err := buildSearchQuery(Filter{
		Text:     "calculus",
		Category: CategoryNotes,
		FileType: FileTypePDF,
		Subject:  "Math",
	})
	require.NoError(t, err)

	assert.Contains(t, q.text, "(r.title ILIKE $1 OR r.description ILIKE $1)")
	assert.Contains(t, q.text, "r.category = $2")
	assert.Contains(t, q.text, "r.file_type = $3")
	assert.Contains(t, q.text, "r.subject ILIKE $4")
	assert.Equal(t, 3, strings.Count(q.text, "\n  AND "))
	assert.Equal(t, []any{"%calculus%", "Notes", "PDF", "%Math%"}, q.args)
}

func TestUserInputIsNeverInterpolated(t *testing.T) {
	q, err := buildSearchQuery(Filter{Text: "'; DROP TABLE resources; --", Subject: "50%_off\\"})
	require.NoError(t, err)

	assert.NotContains(t, q.text, "DROP")
	assert.Equal(t, "%'; DROP TABLE resources; --%", q.args[0])
	assert.Equal(t, `%50\%\_off\\%`, q.args[1])
}

func TestBlankTextIsIgnored(t *testing.T) {
	q, err := buildSearchQuery(Filter{Text: "   ", Subject: "\t"})
	require.NoError(t, err)
	assert.NotContains(t, q.text, "WHERE")
}

func TestUploaderAndPaging(t *testing.T) {
	uploader := uuid.New()
	q, err := buildSearchQuery(Filter{UploaderID: &uploader, Limit: 20, Offset: 40})
	require.NoError(t, err)

	assert.Contains(t, q.text, "r.uploader_id = $1")
	assert.Contains(t, q.text, "LIMIT $2")
	assert.Contains(t, q.text, "OFFSET $3")
	assert.Equal(t, []any{uploader, 20, 40}, q.args)
}

func TestInvalidFilterValuesAreRejected(t *testing.T) {
	_, err := buildSearchQuery(Filter{Category: "Videos"})
	assertReason(t, err, ReasonInvalidCategory)

	_, err = buildSearchQuery(Filter{FileType: "EXE"})
	assertReason(t, err, ReasonInvalidFileType)

	_, err = buildSearchQuery(Filter{Limit: -1})
	assertReason(t, err, ReasonInvalidPage)
}

func TestIncrementCommandIsServerSide(t *testing.T) {
	id := uuid.New()
	cmd := buildIncrementCommand(id)

	assert.Equal(t, "SELECT increment_download_count($1)", cmd.text)
	assert.Equal(t, []any{id}, cmd.args)
}

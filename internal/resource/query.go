package resource

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// sqlQuery is a statement with its positional arguments.
type sqlQuery struct {
	text string
	args []any
}

const resourceColumns = `r.id, r.title, r.description, r.category, r.file_type, r.object_key, r.file_name,
       r.size_bytes, r.preview_key, r.subject, r.course, r.download_count, r.uploader_id, r.created_at,
       u.display_name, u.email`

const resourceSelect = `SELECT ` + resourceColumns + `
FROM resources r
JOIN users u ON u.id = r.uploader_id`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearchQuery compiles a filter into one parameterized statement. Every
// active predicate is ANDed; results are newest first.
func buildSearchQuery(f Filter) (sqlQuery, error) {
	if f.Category != "" && !f.Category.Valid() {
		return sqlQuery{}, &ValidationError{Field: "category", Reason: ReasonInvalidCategory}
	}
	if f.FileType != "" && !f.FileType.Valid() {
		return sqlQuery{}, &ValidationError{Field: "file_type", Reason: ReasonInvalidFileType}
	}
	if f.Limit < 0 || f.Offset < 0 {
		return sqlQuery{}, &ValidationError{Field: "page", Reason: ReasonInvalidPage}
	}

	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := strings.TrimSpace(f.Text); text != "" {
		p := bind(containsPattern(text))
		conds = append(conds, fmt.Sprintf("(r.title ILIKE %s OR r.description ILIKE %s)", p, p))
	}
	if f.Category != "" {
		conds = append(conds, "r.category = "+bind(string(f.Category)))
	}
	if f.FileType != "" {
		conds = append(conds, "r.file_type = "+bind(string(f.FileType)))
	}
	if subject := strings.TrimSpace(f.Subject); subject != "" {
		conds = append(conds, "r.subject ILIKE "+bind(containsPattern(subject)))
	}
	if f.UploaderID != nil {
		conds = append(conds, "r.uploader_id = "+bind(*f.UploaderID))
	}

	var sb strings.Builder
	sb.WriteString(resourceSelect)
	if len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, "\n  AND "))
	}
	sb.WriteString("\nORDER BY r.created_at DESC, r.id")
	if f.Limit > 0 {
		sb.WriteString("\nLIMIT " + bind(f.Limit))
	}
	if f.Offset > 0 {
		sb.WriteString("\nOFFSET " + bind(f.Offset))
	}

	return sqlQuery{text: sb.String(), args: args}, nil
}

// buildIncrementCommand delegates the +1 to the database so concurrent
// downloads never lose updates.
func buildIncrementCommand(id uuid.UUID) sqlQuery {
	return sqlQuery{text: `SELECT increment_download_count($1)`, args: []any{id}}
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

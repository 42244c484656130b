package postservice

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input literal inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// incrementTag creates the tag at count 1 or bumps its count.
func (m *PostModel) incrementTag(ctx context.Context, q queryer, name string) error {
	query := `
		INSERT INTO tags (name, count)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET count = tags.count + 1`

	_, err := q.ExecContext(ctx, query, name)
	return err
}

// decrementTag lowers the count by one. found is false when no tag row exists, which is not an error.
func (m *PostModel) decrementTag(ctx context.Context, q queryer, name string) (count int, found bool, err error) {
	query := `
		UPDATE tags
		SET count = count - 1
		WHERE name = $1
		RETURNING count`

	err = q.QueryRowContext(ctx, query, name).Scan(&count)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, false, nil
		default:
			return 0, false, err
		}
	}

	return count, true, nil
}

// getTags returns every tag by count descending.
func (m *PostModel) getTags(ctx context.Context) ([]Tag, error) {
	query := `
		SELECT id, name, count, created_at
		FROM tags
		ORDER BY count DESC, name ASC`

	return m.queryTags(ctx, query)
}

// searchTags returns at most limit tags whose name contains search.
func (m *PostModel) searchTags(ctx context.Context, search string, limit int) ([]Tag, error) {
	query := `
		SELECT id, name, count, created_at
		FROM tags
		WHERE name LIKE $1
		ORDER BY count DESC, name ASC
		LIMIT $2`

	return m.queryTags(ctx, query, "%"+escapeLike(search)+"%", limit)
}

func (m *PostModel) queryTags(ctx context.Context, query string, args ...any) ([]Tag, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Count, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

// insertTag creates a tag at count 0. created is false when the tag already existed; the existing row is returned.
func (m *PostModel) insertTag(ctx context.Context, name string) (*Tag, bool, error) {
	query := `
		INSERT INTO tags (name, count)
		VALUES ($1, 0)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, count, created_at`

	var tag Tag
	err := m.db.QueryRowContext(ctx, query, name).Scan(&tag.ID, &tag.Name, &tag.Count, &tag.CreatedAt)
	if err == nil {
		return &tag, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	query = `SELECT id, name, count, created_at FROM tags WHERE name = $1`
	if err := m.db.QueryRowContext(ctx, query, name).Scan(&tag.ID, &tag.Name, &tag.Count, &tag.CreatedAt); err != nil {
		return nil, false, err
	}

	return &tag, false, nil
}

// recountTags inserts tags referenced by posts but missing from the table, then recomputes every count.
func (m *PostModel) recountTags(ctx context.Context, tx *sql.Tx) (int64, error) {
	insert := `
		INSERT INTO tags (name, count)
		SELECT DISTINCT unnest(tags), 0 FROM posts
		ON CONFLICT (name) DO NOTHING`

	if _, err := tx.ExecContext(ctx, insert); err != nil {
		return 0, err
	}

	update := `
		UPDATE tags t
		SET count = (SELECT COUNT(*) FROM posts p WHERE t.name = ANY(p.tags))
		WHERE t.count <> (SELECT COUNT(*) FROM posts p WHERE t.name = ANY(p.tags))`

	res, err := tx.ExecContext(ctx, update)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

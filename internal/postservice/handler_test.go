package postservice

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/devlog/internal/authz"
	"github.com/sushihentaime/devlog/internal/common"
)

var (
	admin  = authz.Principal{ID: "credentials:admin", Name: "admin", IsAdmin: true}
	reader = authz.Principal{ID: "github:42", Name: "reader", Email: "reader@example.com"}
)

func setupTestEnvironment(t *testing.T) (*PostService, *sql.DB, func()) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewMemoryCache(5*time.Minute, 10*time.Minute)

	cleanup := func() {
		_, err := db.Exec("TRUNCATE posts, tags RESTART IDENTITY CASCADE")
		require.NoError(t, err)
		cache.Flush()
	}

	return NewPostService(db, cache, zerolog.Nop()), db, cleanup
}

func tagCounts(t *testing.T, db *sql.DB) map[string]int {
	rows, err := db.Query("SELECT name, count FROM tags")
	require.NoError(t, err)
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var count int
		require.NoError(t, rows.Scan(&name, &count))
		counts[name] = count
	}
	require.NoError(t, rows.Err())

	return counts
}

func newInput(title string, tags ...string) *PostInput {
	return &PostInput{Title: title, Content: "<p>" + title + " body</p>", Tags: tags}
}

func TestPostService(t *testing.T) {
	s, db, cleanup := setupTestEnvironment(t)
	ctx := context.Background()

	t.Run("tag counts follow create update delete", func(t *testing.T) {
		defer cleanup()

		post, err := s.CreatePost(ctx, admin, newInput("first", "a", "b"))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 1, "b": 1}, tagCounts(t, db))

		_, err = s.UpdatePost(ctx, admin, post.ID, newInput("first", "b", "c"))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 1}, tagCounts(t, db))

		require.NoError(t, s.DeletePost(ctx, admin, post.ID))
		assert.Equal(t, map[string]int{"a": 0, "b": 0, "c": 0}, tagCounts(t, db))
	})

	t.Run("create normalizes tags and derives excerpt", func(t *testing.T) {
		defer cleanup()

		in := &PostInput{
			Title:   "  Hello  ",
			Content: "<p>Hello <b>world</b></p><script>alert(1)</script>",
			Tags:    []string{" Go ", "go", "Rust", ""},
		}

		post, err := s.CreatePost(ctx, admin, in)
		require.NoError(t, err)
		assert.Equal(t, "Hello", post.Title)
		assert.Equal(t, []string{"go", "rust"}, post.Tags)
		assert.Equal(t, "<p>Hello <b>world</b></p>", post.Content)
		require.NotNil(t, post.Excerpt)
		assert.Equal(t, "Hello world", *post.Excerpt)
		assert.Equal(t, admin.ID, post.AuthorID)
		assert.Equal(t, "admin", post.AuthorName)
		assert.Equal(t, map[string]int{"go": 1, "rust": 1}, tagCounts(t, db))

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.Tags, got.Tags)
		assert.Equal(t, post.Title, got.Title)
	})

	t.Run("second post sharing a tag increments it", func(t *testing.T) {
		defer cleanup()

		_, err := s.CreatePost(ctx, admin, newInput("one", "go"))
		require.NoError(t, err)
		_, err = s.CreatePost(ctx, admin, newInput("two", "go", "sql"))
		require.NoError(t, err)

		assert.Equal(t, map[string]int{"go": 2, "sql": 1}, tagCounts(t, db))
	})

	t.Run("decrement of a missing tag is a no-op and negative counts are kept", func(t *testing.T) {
		defer cleanup()

		post, err := s.CreatePost(ctx, admin, newInput("post", "a", "b"))
		require.NoError(t, err)

		_, err = db.Exec("DELETE FROM tags WHERE name = 'a'")
		require.NoError(t, err)
		_, err = db.Exec("UPDATE tags SET count = 0 WHERE name = 'b'")
		require.NoError(t, err)

		require.NoError(t, s.DeletePost(ctx, admin, post.ID))
		assert.Equal(t, map[string]int{"b": -1}, tagCounts(t, db))

		changed, err := s.RecountTags(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changed)
		assert.Equal(t, map[string]int{"b": 0}, tagCounts(t, db))
	})

	t.Run("recount inserts missing tags", func(t *testing.T) {
		defer cleanup()

		_, err := db.Exec(`INSERT INTO posts (title, content, tags, author_id, author_name) VALUES ('x', 'y', '{go,sql}', 'a', 'a')`)
		require.NoError(t, err)

		_, err = s.RecountTags(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"go": 1, "sql": 1}, tagCounts(t, db))
	})

	t.Run("admin gate", func(t *testing.T) {
		defer cleanup()

		post, err := s.CreatePost(ctx, admin, newInput("gated", "a"))
		require.NoError(t, err)

		tests := []struct {
			name      string
			principal authz.Principal
			expected  error
		}{
			{name: "anonymous", principal: authz.Anonymous, expected: common.ErrUnauthenticated},
			{name: "non admin", principal: reader, expected: common.ErrForbidden},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.CreatePost(ctx, tt.principal, newInput("nope", "z"))
				assert.ErrorIs(t, err, tt.expected)

				_, err = s.UpdatePost(ctx, tt.principal, post.ID, newInput("nope", "z"))
				assert.ErrorIs(t, err, tt.expected)

				_, err = s.TogglePin(ctx, tt.principal, post.ID)
				assert.ErrorIs(t, err, tt.expected)

				err = s.DeletePost(ctx, tt.principal, post.ID)
				assert.ErrorIs(t, err, tt.expected)

				_, _, err = s.CreateTag(ctx, tt.principal, "z")
				assert.ErrorIs(t, err, tt.expected)

				_, err = s.RecountTags(ctx, tt.principal)
				assert.ErrorIs(t, err, tt.expected)
			})
		}

		assert.Equal(t, map[string]int{"a": 1}, tagCounts(t, db))
	})

	t.Run("validation", func(t *testing.T) {
		defer cleanup()

		tests := []struct {
			name  string
			input *PostInput
			field string
		}{
			{name: "missing title", input: &PostInput{Content: "<p>x</p>"}, field: "title"},
			{name: "empty content", input: &PostInput{Title: "x", Content: "<p><br></p>"}, field: "content"},
			{name: "too many tags", input: newInput("x", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"), field: "tags"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.CreatePost(ctx, admin, tt.input)
				var verr common.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Errors, tt.field)
			})
		}

		assert.Empty(t, tagCounts(t, db))
	})

	t.Run("missing post", func(t *testing.T) {
		defer cleanup()

		_, err := s.GetPost(ctx, 9999)
		assert.ErrorIs(t, err, common.ErrRecordNotFound)

		_, err = s.UpdatePost(ctx, admin, 9999, newInput("x", "a"))
		assert.ErrorIs(t, err, common.ErrRecordNotFound)

		err = s.DeletePost(ctx, admin, 9999)
		assert.ErrorIs(t, err, common.ErrRecordNotFound)

		_, err = s.TogglePin(ctx, admin, 9999)
		assert.ErrorIs(t, err, common.ErrRecordNotFound)

		assert.Empty(t, tagCounts(t, db))
	})

	t.Run("pin ordering and toggle", func(t *testing.T) {
		defer cleanup()

		older, err := s.CreatePost(ctx, admin, newInput("older", "go"))
		require.NoError(t, err)
		newer, err := s.CreatePost(ctx, admin, newInput("newer", "sql"))
		require.NoError(t, err)

		posts, err := s.GetPosts(ctx, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)

		pinned, err := s.TogglePin(ctx, admin, older.ID)
		require.NoError(t, err)
		assert.True(t, pinned.IsPinned)

		posts, err = s.GetPosts(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, older.ID, posts[0].ID)

		unpinned, err := s.SetPin(ctx, admin, older.ID, false)
		require.NoError(t, err)
		assert.False(t, unpinned.IsPinned)

		got, err := s.GetPost(ctx, older.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPinned)

		filtered, err := s.GetPosts(ctx, "GO", 0, 0)
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, older.ID, filtered[0].ID)
	})

	t.Run("search by title", func(t *testing.T) {
		defer cleanup()

		_, err := s.CreatePost(ctx, admin, newInput("Learning Go"))
		require.NoError(t, err)
		_, err = s.CreatePost(ctx, admin, newInput("100% Rust"))
		require.NoError(t, err)

		posts, err := s.SearchPosts(ctx, "go", 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Learning Go", posts[0].Title)

		posts, err = s.SearchPosts(ctx, "%", 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "100% Rust", posts[0].Title)

		_, err = s.SearchPosts(ctx, "  ", 0, 0)
		assert.ErrorAs(t, err, &common.ValidationError{})
	})

	t.Run("tags listing and creation", func(t *testing.T) {
		defer cleanup()

		_, err := s.CreatePost(ctx, admin, newInput("one", "go", "golang"))
		require.NoError(t, err)
		_, err = s.CreatePost(ctx, admin, newInput("two", "go"))
		require.NoError(t, err)

		tags, err := s.GetTags(ctx, "")
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "go", tags[0].Name)
		assert.Equal(t, 2, tags[0].Count)

		tag, created, err := s.CreateTag(ctx, admin, " Docker ")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "docker", tag.Name)
		assert.Equal(t, 0, tag.Count)

		tag, created, err = s.CreateTag(ctx, admin, "go")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 2, tag.Count)

		tags, err = s.GetTags(ctx, "")
		require.NoError(t, err)
		assert.Len(t, tags, 3)

		tags, err = s.GetTags(ctx, "GOL")
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "golang", tags[0].Name)
	})

	t.Run("concurrent updates keep counts consistent", func(t *testing.T) {
		defer cleanup()

		post, err := s.CreatePost(ctx, admin, newInput("race", "a"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for _, tag := range []string{"b", "c", "d", "e"} {
			wg.Add(1)
			go func(tag string) {
				defer wg.Done()
				_, err := s.UpdatePost(ctx, admin, post.ID, newInput("race", tag))
				assert.NoError(t, err)
			}(tag)
		}
		wg.Wait()

		got, err := s.m.getPostByID(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, got.Tags, 1)

		total := 0
		for name, count := range tagCounts(t, db) {
			if name == got.Tags[0] {
				assert.Equal(t, 1, count)
			} else {
				assert.Equal(t, 0, count)
			}
			total += count
		}
		assert.Equal(t, 1, total)
	})
}

// interleavedCache runs beforeSet once, just ahead of the first cache write.
type interleavedCache struct {
	common.Cache
	once      sync.Once
	beforeSet func()
}

func (c *interleavedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.once.Do(c.beforeSet)
	return c.Cache.Set(ctx, key, value, ttl)
}

func TestGetPostDoesNotCacheRowReadBeforeUpdate(t *testing.T) {
	_, db, cleanup := setupTestEnvironment(t)
	defer cleanup()
	ctx := context.Background()

	cache := &interleavedCache{Cache: common.NewMemoryCache(5*time.Minute, 10*time.Minute)}
	s := NewPostService(db, cache, zerolog.Nop())

	post, err := s.CreatePost(ctx, admin, newInput("draft", "a"))
	require.NoError(t, err)

	cache.beforeSet = func() {
		_, err := s.UpdatePost(ctx, admin, post.ID, newInput("final", "a"))
		assert.NoError(t, err)
	}

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Title)

	var cached Post
	ok, err := cache.Get(ctx, common.CacheKeyPost(post.ID), &cached)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
}

func TestStoreKeepsValueWithoutInvalidation(t *testing.T) {
	cache := common.NewMemoryCache(5*time.Minute, 10*time.Minute)
	s := &PostService{c: cache, logger: zerolog.Nop()}
	ctx := context.Background()

	gen := s.generation.Load()
	s.store(ctx, "k", Tag{Name: "go"}, time.Minute, gen)

	var tag Tag
	ok, err := cache.Get(ctx, "k", &tag)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "go", tag.Name)

	gen = s.generation.Load()
	s.invalidate(ctx, "other")
	s.store(ctx, "k", Tag{Name: "rust"}, time.Minute, gen)

	ok, err = cache.Get(ctx, "k", &tag)
	require.NoError(t, err)
	assert.False(t, ok)
}

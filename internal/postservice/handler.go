package postservice

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/authz"
	"github.com/sushihentaime/devlog/internal/common"
)

func NewPostService(db *sql.DB, cache common.Cache, logger zerolog.Logger) *PostService {
	return &PostService{
		m:      newPostModel(db),
		c:      cache,
		logger: logger.With().Str("service", "post").Logger(),
	}
}

// prepareInput normalizes tags, sanitizes content and fills in a derived excerpt.
func prepareInput(in *PostInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = NormalizeTags(in.Tags)
	in.Content = sanitizeContent(in.Content)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
}

func excerptFor(in *PostInput) *string {
	excerpt := in.Excerpt
	if excerpt == "" {
		excerpt = makeExcerpt(in.Content)
	}
	if excerpt == "" {
		return nil
	}
	return &excerpt
}

// CreatePost stores a new post and increments the count of each of its tags in the same transaction.
func (s *PostService) CreatePost(ctx context.Context, p authz.Principal, in *PostInput) (*Post, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}

	prepareInput(in)
	v := common.NewValidator()
	validatePostInput(v, in)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post := &Post{
		Title:      in.Title,
		Content:    in.Content,
		Excerpt:    excerptFor(in),
		Tags:       in.Tags,
		IsPinned:   in.IsPinned,
		AuthorID:   p.ID,
		AuthorName: p.DisplayName(),
	}

	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		if err := s.m.insert(ctx, tx, post); err != nil {
			return err
		}

		for _, tag := range post.Tags {
			if err := s.m.incrementTag(ctx, tx, tag); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, common.CacheKeyTags)

	return post, nil
}

// GetPost returns a post by id, served from the cache when possible.
func (s *PostService) GetPost(ctx context.Context, id int) (*Post, error) {
	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyPost(id)
	gen := s.generation.Load()

	var cached Post
	if ok, err := s.c.Get(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		return &cached, nil
	}

	post, err := s.m.getPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, post, postCacheTTL, gen)

	return post, nil
}

// UpdatePost replaces the editable fields of a post and applies the tag delta in the same transaction.
// The post row stays locked until commit, so concurrent updates of one post apply their deltas in turn.
func (s *PostService) UpdatePost(ctx context.Context, p authz.Principal, id int, in *PostInput) (*Post, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}

	prepareInput(in)
	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	validatePostInput(v, in)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var post *Post
	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		old, err := s.m.lockPost(ctx, tx, id)
		if err != nil {
			return err
		}

		post = &Post{
			ID:      id,
			Title:   in.Title,
			Content: in.Content,
			Excerpt: excerptFor(in),
			Tags:    in.Tags,
		}
		if err := s.m.update(ctx, tx, post); err != nil {
			return err
		}

		increments, decrements := ReconcileTags(old.Tags, post.Tags)
		if err := s.decrementTags(ctx, tx, decrements); err != nil {
			return err
		}
		for _, tag := range increments {
			if err := s.m.incrementTag(ctx, tx, tag); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, common.CacheKeyPost(id), common.CacheKeyTags)

	return post, nil
}

// DeletePost removes a post and decrements the count of each tag it carried.
func (s *PostService) DeletePost(ctx context.Context, p authz.Principal, id int) error {
	if err := authz.RequireAdmin(p); err != nil {
		return err
	}

	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		old, err := s.m.lockPost(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := s.m.delete(ctx, tx, id); err != nil {
			return err
		}

		return s.decrementTags(ctx, tx, NormalizeTags(old.Tags))
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, common.CacheKeyPost(id), common.CacheKeyTags)

	return nil
}

// decrementTags lowers each count by one. Missing tags are skipped and negative results are
// reported but left as they are; RecountTags repairs them.
func (s *PostService) decrementTags(ctx context.Context, tx *sql.Tx, names []string) error {
	for _, name := range names {
		count, found, err := s.m.decrementTag(ctx, tx, name)
		if err != nil {
			return err
		}

		if !found {
			s.logger.Debug().Str("tag", name).Msg("decrement skipped, tag does not exist")
			continue
		}

		if count < 0 {
			s.logger.Warn().Str("tag", name).Int("count", count).Msg("tag count went negative")
		}
	}

	return nil
}

// TogglePin flips the pin flag and returns the post.
func (s *PostService) TogglePin(ctx context.Context, p authz.Principal, id int) (*Post, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.togglePin(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, common.CacheKeyPost(id))

	return post, nil
}

func (s *PostService) SetPin(ctx context.Context, p authz.Principal, id int, pinned bool) (*Post, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	common.ValidateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.setPin(ctx, id, pinned)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, common.CacheKeyPost(id))

	return post, nil
}

func normalizePage(limit, offset *int) {
	if *limit < 1 {
		*limit = defaultLimit
	}
	if *limit > maxLimit {
		*limit = maxLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}

// GetPosts lists posts, pinned first then newest. An empty tag means no filter.
func (s *PostService) GetPosts(ctx context.Context, tag string, limit, offset int) ([]Post, error) {
	normalizePage(&limit, &offset)
	return s.m.getPosts(ctx, NormalizeTag(tag), limit, offset)
}

// SearchPosts finds posts whose title contains q, ignoring case.
func (s *PostService) SearchPosts(ctx context.Context, q string, limit, offset int) ([]Post, error) {
	q = strings.TrimSpace(q)

	v := common.NewValidator()
	v.Check(q != "", "q", "must be provided")
	v.Check(v.CheckStringLength(q, 0, 200), "q", "must not be more than 200 characters long")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	normalizePage(&limit, &offset)
	return s.m.getPostsByTitle(ctx, q, limit, offset)
}

// GetTags returns tags by count descending. With a search term at most 10 matching tags are returned.
func (s *PostService) GetTags(ctx context.Context, search string) ([]Tag, error) {
	search = NormalizeTag(search)
	if search != "" {
		return s.m.searchTags(ctx, search, tagSearchLimit)
	}

	gen := s.generation.Load()

	var cached []Tag
	if ok, err := s.c.Get(ctx, common.CacheKeyTags, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		return cached, nil
	}

	tags, err := s.m.getTags(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, common.CacheKeyTags, tags, tagCacheTTL, gen)

	return tags, nil
}

// CreateTag adds a tag with a zero count. created is false when the tag already existed.
func (s *PostService) CreateTag(ctx context.Context, p authz.Principal, name string) (*Tag, bool, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, false, err
	}

	name = NormalizeTag(name)
	v := common.NewValidator()
	validateTagName(v, name)
	if !v.Valid() {
		return nil, false, v.ValidationError()
	}

	tag, created, err := s.m.insertTag(ctx, name)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.invalidate(ctx, common.CacheKeyTags)
	}

	return tag, created, nil
}

// RecountTags rebuilds every tag count from the posts table and returns how many tags changed.
func (s *PostService) RecountTags(ctx context.Context, p authz.Principal) (int64, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return 0, err
	}

	var changed int64
	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		var err error
		changed, err = s.m.recountTags(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, common.CacheKeyTags)
	s.logger.Info().Int64("changed", changed).Msg("tag counts rebuilt")

	return changed, nil
}

// store caches value read at generation gen. When an invalidation ran since then the value may
// predate a write, so it is dropped again.
func (s *PostService) store(ctx context.Context, key string, value any, ttl time.Duration, gen uint64) {
	if err := s.c.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return
	}

	if s.generation.Load() != gen {
		if err := s.c.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
		}
	}
}

func (s *PostService) invalidate(ctx context.Context, keys ...string) {
	s.generation.Add(1)
	if err := s.c.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

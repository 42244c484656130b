package mediaservice

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sushihentaime/devlog/internal/authz"
	"github.com/sushihentaime/devlog/internal/common"
)

func NewMediaService(store ObjectStore, publicBaseURL string, logger zerolog.Logger) *MediaService {
	return &MediaService{
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
		logger:        logger.With().Str("service", "media").Logger(),
	}
}

// objectKey prefixes the cleaned file name with the upload time in milliseconds.
func objectKey(now time.Time, filename string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + cleanFilename(filename)
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return '_'
		}
	}, name)

	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "upload"
	}

	return cleaned
}

// UploadImage stores an image of at most MaxUploadSize bytes and returns its public URL.
// The content type is sniffed from the data; the client's claim is ignored.
func (s *MediaService) UploadImage(ctx context.Context, p authz.Principal, filename string, r io.Reader) (*Upload, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)

	v := common.NewValidator()
	v.Check(len(data) > 0, "upload", "must be provided")
	v.Check(len(data) <= MaxUploadSize, "upload", "must not be larger than 5MB")
	v.Check(strings.HasPrefix(contentType, "image/"), "upload", "must be an image")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := objectKey(s.now(), filename)
	if err := s.store.Put(ctx, key, contentType, data); err != nil {
		return nil, err
	}

	s.logger.Info().Str("key", key).Int("size", len(data)).Msg("image uploaded")

	return &Upload{
		URL:         s.publicBaseURL + "/" + url.PathEscape(key),
		Key:         key,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

// Check reports whether the blob store is reachable.
func (s *MediaService) Check(ctx context.Context) error {
	return s.store.Check(ctx)
}

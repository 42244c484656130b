package mediaservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MaxUploadSize is the largest image accepted, in bytes.
const MaxUploadSize = 5 << 20

// ObjectStore is the blob store uploads are written to.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Check(ctx context.Context) error
}

type MediaService struct {
	store         ObjectStore
	publicBaseURL string
	now           func() time.Time
	logger        zerolog.Logger
}

type Upload struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

package services

import (
	"context"

	"github.com/dmitrijs2005/portalsend/internal/netx"
)

// blobStore adapts netx.Uploader to the envelope pipeline's BlobStore
// interface.
type blobStore struct {
	uploader *netx.Uploader
}

func (b *blobStore) Upload(ctx context.Context, url string, blob []byte) error {
	return b.uploader.UploadToPresignedURL(ctx, url, blob)
}

func (b *blobStore) Download(ctx context.Context, url string) ([]byte, error) {
	return b.uploader.DownloadFromPresignedURL(ctx, url)
}

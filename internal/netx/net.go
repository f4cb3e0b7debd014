// Package netx moves ciphertext blobs to and from object storage through
// presigned URLs. The bytes passing through here are always encrypted before
// they arrive; this package never sees a key.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Uploader pushes and pulls blobs through presigned URLs using a shared
// http.Client. Construct one at startup and pass it by reference.
type Uploader struct {
	client *http.Client
}

func NewUploader(client *http.Client) *Uploader {
	if client == nil {
		client = &http.Client{}
	}
	return &Uploader{client: client}
}

// UploadToPresignedURL PUTs the blob to a presigned URL. Uploads are part of
// the non-idempotent send sequence and are never retried here.
func (u *Uploader) UploadToPresignedURL(ctx context.Context, url string, blob []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}

// DownloadFromPresignedURL GETs a blob from a presigned URL. The fetch is
// idempotent, so transient failures are retried with capped exponential
// backoff before giving up.
func (u *Uploader) DownloadFromPresignedURL(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := u.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("download failed: %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download failed: %s", resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

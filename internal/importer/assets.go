package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds each remote image fetch so one stalled origin
// cannot hang a whole batch.
const DefaultFetchTimeout = 30 * time.Second

var remoteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// ObjectUploader is the object-storage boundary for relocated images.
type ObjectUploader interface {
	UploadObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}

// AssetIngestor normalizes image references from import rows into storage
// paths. References that are already storage paths pass through untouched;
// remote URLs are fetched and re-uploaded into managed storage.
type AssetIngestor struct {
	uploader ObjectUploader
	client   *http.Client
}

func NewAssetIngestor(uploader ObjectUploader, fetchTimeout time.Duration) *AssetIngestor {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &AssetIngestor{
		uploader: uploader,
		client: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// Ingest resolves one image reference for a listing. label is "featured" or
// "gallery-{n}" and fixes the object key to "{listingID}/{label}{ext}", so a
// re-run of the same row overwrites instead of accumulating objects.
func (a *AssetIngestor) Ingest(ctx context.Context, listingID, reference, label string) (string, error) {
	reference = strings.TrimSpace(reference)
	if !remoteURLPattern.MatchString(reference) {
		return reference, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return "", fmt.Errorf("invalid image URL %s: %w", reference, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image %s: %w", reference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to fetch image %s: status %d", reference, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", reference, err)
	}

	objectKey := fmt.Sprintf("%s/%s%s", listingID, label, extensionFor(reference, contentType))
	if err := a.uploader.UploadObject(ctx, objectKey, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return "", err
	}

	return objectKey, nil
}

// extensionFor picks the file extension from the URL path, falling back to
// the declared content type's subtype when the path has none.
func extensionFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return ext
		}
	}

	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if _, subtype, ok := strings.Cut(mediaType, "/"); ok && subtype != "" {
		return "." + subtype
	}
	return ""
}

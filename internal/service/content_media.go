// Package service holds request-scoped domain logic that sits between
// handlers and repositories: the content-media reconciler and the
// best-effort audit event publisher.
package service

import (
	"context"
	"regexp"
)

// uploadURLPattern matches attribute-style references to the uploads
// namespace inside a content body, e.g. src="/uploads/abc.png" with either
// quote style.
var uploadURLPattern = regexp.MustCompile(`src=["'](/uploads/[^"']+)["']`)

// ExtractUploadURLs returns the deduplicated set of upload URLs referenced
// in body, in first-appearance order.
func ExtractUploadURLs(body string) []string {
	matches := uploadURLPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		urls = append(urls, m[1])
	}
	return urls
}

// LinkStore is the slice of the media repository the reconciler needs.
// Handlers pass a transaction-bound repository so the delete-then-insert
// pass commits atomically with the content write.
type LinkStore interface {
	DeleteContentLinks(ctx context.Context, contentID int64) error
	MediaIDsByURLs(ctx context.Context, urls []string) ([]string, error)
	InsertContentLink(ctx context.Context, contentID int64, mediaID string) error
}

// ReconcileContentMedia re-derives the content_media rows for one content
// from its body text. It is a full recomputation, not an incremental diff:
// all existing links are dropped, then one link is inserted per referenced
// URL that resolves to a stored media row. Dangling references are
// silently ignored. Calling with an empty body clears all links, which is
// how soft delete severs them.
func ReconcileContentMedia(ctx context.Context, links LinkStore, contentID int64, body string) error {
	if err := links.DeleteContentLinks(ctx, contentID); err != nil {
		return err
	}
	urls := ExtractUploadURLs(body)
	if len(urls) == 0 {
		return nil
	}
	ids, err := links.MediaIDsByURLs(ctx, urls)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := links.InsertContentLink(ctx, contentID, id); err != nil {
			return err
		}
	}
	return nil
}

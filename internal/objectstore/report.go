package objectstore

import (
	"context"
)

// ArchiveReport stores a raw end-of-call report payload keyed by the provider
// call id so the original provider data survives later record updates.
func (c *Client) ArchiveReport(ctx context.Context, providerCallID string, payload []byte) (string, error) {
	return c.Upload(ctx, "reports/"+providerCallID+".json", payload)
}

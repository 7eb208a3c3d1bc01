package registry

import (
	"context"
	"time"

	"github.com/walterra/eddo-core/internal/docstore"
)

const maxDesignDocAttempts = 10

// SetupDesignDocuments installs the registry's views, retrying on conflict
// up to maxDesignDocAttempts times with linear backoff; each attempt's
// CreateDesignDoc call re-reads the current revision before writing.
func (r *Registry) SetupDesignDocuments(ctx context.Context) error {
	doc := docstore.DesignDoc{
		ID: "_design/registry",
		Views: map[string]docstore.View{
			"by_username": {
				Map: `function(doc) { if (doc.username) { emit(doc.username, null); } }`,
			},
			"by_email": {
				Map: `function(doc) { if (doc.email) { emit(doc.email, null); } }`,
			},
			"by_telegram_id": {
				Map: `function(doc) { if (doc.telegram_id) { emit(doc.telegram_id, null); } }`,
			},
			"by_status": {
				Map: `function(doc) { if (doc.status) { emit(doc.status, null); } }`,
			},
			"active_users": {
				Map: `function(doc) { if (doc.status === "active") { emit(doc._id, null); } }`,
			},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxDesignDocAttempts; attempt++ {
		lastErr = r.store.CreateDesignDoc(ctx, doc)
		if lastErr == nil {
			return nil
		}
		if !docstore.IsConflict(lastErr) {
			return lastErr
		}
		time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
	}
	return lastErr
}

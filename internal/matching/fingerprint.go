// internal/matching/fingerprint.go
package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"grantmatch/internal/models"
)

// Fingerprint returns the cache key for a normalized search request: a
// stable hash over every field that affects the ranked result. The profile
// id is kept as a plain prefix so per-profile invalidation can use a glob
// ("match:<profileId>:*").
func Fingerprint(req *models.SearchRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "profile=%s;limit=%d;offset=%d;minSim=%.4f;",
		req.ProfileID, req.Limit, req.Offset, req.MinSimilarity)

	f := req.Filters
	if f.MinAwardAmount != nil {
		fmt.Fprintf(&b, "minAward=%.2f;", *f.MinAwardAmount)
	}
	if f.MaxAwardAmount != nil {
		fmt.Fprintf(&b, "maxAward=%.2f;", *f.MaxAwardAmount)
	}
	if f.DeadlineAfter != nil {
		fmt.Fprintf(&b, "after=%s;", f.DeadlineAfter.UTC().Format(time.RFC3339))
	}
	if f.DeadlineBefore != nil {
		fmt.Fprintf(&b, "before=%s;", f.DeadlineBefore.UTC().Format(time.RFC3339))
	}
	if f.EssayRequired != nil {
		fmt.Fprintf(&b, "essay=%t;", *f.EssayRequired)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("match:%s:%s", req.ProfileID, hex.EncodeToString(sum[:16]))
}

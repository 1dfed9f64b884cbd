package ledger

import (
	"fmt"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// KeyPolicy selects the identity key used for dedupe and merge. The
// "event" policy keeps one canonical row per match; the "snapshot"
// policy additionally keys on the scrape timestamp, so every odds
// snapshot of the same match survives. The policy is fixed per ledger
// and must not be switched on an existing file.
type KeyPolicy string

const (
	KeyPolicyEvent    KeyPolicy = "event"
	KeyPolicySnapshot KeyPolicy = "snapshot"
)

// ParseKeyPolicy validates a config value, defaulting empty to "event".
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch KeyPolicy(s) {
	case "":
		return KeyPolicyEvent, nil
	case KeyPolicyEvent, KeyPolicySnapshot:
		return KeyPolicy(s), nil
	}
	return "", fmt.Errorf("unknown key policy %q (want %q or %q)", s, KeyPolicyEvent, KeyPolicySnapshot)
}

// Key builds the identity key of a record under this policy.
func (p KeyPolicy) Key(r *models.OddsRecord) string {
	k := r.EventName + "\x1f" + r.EventTime
	if p == KeyPolicySnapshot {
		k += "\x1f" + r.ParseTimestamp
	}
	return k
}

// Dedupe drops later duplicates by identity key, keeping the order of
// first occurrence.
func Dedupe(rows []models.OddsRecord, policy KeyPolicy) []models.OddsRecord {
	seen := make(map[string]struct{}, len(rows))
	out := make([]models.OddsRecord, 0, len(rows))
	for i := range rows {
		key := policy.Key(&rows[i])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rows[i])
	}
	return out
}

// MergePreservingResults merges freshly scraped rows into the existing
// ledger without clobbering computed outcomes: where a key exists on
// both sides the settled existing row wins, otherwise the new row
// replaces it; keys on one side only are kept. Existing row order is
// preserved, unseen new rows append in scrape order. Once every match
// is settled and no new events appear, the merge is a no-op.
func MergePreservingResults(existing, fresh []models.OddsRecord, policy KeyPolicy) []models.OddsRecord {
	freshByKey := make(map[string]int, len(fresh))
	for i := range fresh {
		key := policy.Key(&fresh[i])
		if _, ok := freshByKey[key]; !ok {
			freshByKey[key] = i
		}
	}

	merged := make([]models.OddsRecord, 0, len(existing)+len(fresh))
	consumed := make(map[string]struct{}, len(fresh))
	for i := range existing {
		key := policy.Key(&existing[i])
		j, ok := freshByKey[key]
		if !ok {
			merged = append(merged, existing[i])
			continue
		}
		consumed[key] = struct{}{}
		if existing[i].Settled() {
			merged = append(merged, existing[i])
		} else {
			merged = append(merged, fresh[j])
		}
	}
	for i := range fresh {
		key := policy.Key(&fresh[i])
		if _, ok := consumed[key]; ok {
			continue
		}
		consumed[key] = struct{}{}
		merged = append(merged, fresh[i])
	}
	return merged
}

package manifest

import (
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/types"
)

// SelectLive returns the single live record. It fails with EMPTY_MANIFEST
// when there are no records, NO_LIVE_REVISION when none is live and
// DUPLICATE_LIVE_REVISION when several are.
func SelectLive(records []types.RevisionRecord) (types.RevisionRecord, error) {
	if len(records) == 0 {
		return types.RevisionRecord{}, errors.New(errors.ErrEmptyManifest, "no revisions read from manifest")
	}

	var live []types.RevisionRecord
	for _, rec := range records {
		if rec.Live {
			live = append(live, rec)
		}
	}

	switch len(live) {
	case 0:
		return types.RevisionRecord{}, errors.New(errors.ErrNoLiveRevision, "no live revision in manifest")
	case 1:
		return live[0], nil
	default:
		keys := make([]string, len(live))
		for i, rec := range live {
			keys[i] = rec.Key().String()
		}
		return types.RevisionRecord{}, errors.Newf(errors.ErrDuplicateLiveRevision,
			"%d live revisions in manifest", len(live)).
			WithDetail("live", keys)
	}
}

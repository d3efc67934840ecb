package tasks

import (
	"github.com/desertthunder/ytsongs/internal/models"
	"github.com/desertthunder/ytsongs/internal/quota"
)

// Summarize counts outcomes by kind and adds the ledger's final state, including committed spend per
// operation kind. A nil ledger reports zero spend with an unknown remainder.
func Summarize(outcomes map[string]models.Outcome, ledger *quota.Ledger) models.RunSummary {
	s := models.RunSummary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Kind {
		case models.Added:
			s.Added++
		case models.AlreadyPresent:
			s.AlreadyPresent++
		case models.NoMatchFound:
			s.NoMatchFound++
		case models.Failed:
			s.Failed++
			if o.QuotaExhausted() {
				s.QuotaExhausted++
			}
		}
	}

	if ledger == nil {
		return s
	}

	u := ledger.Snapshot()
	s.Spent = u.Spent
	s.Remaining, s.RemainingKnown = ledger.Remaining()
	s.Exhausted = u.Exhausted
	s.Remote = u.Remote
	for _, k := range quota.Kinds {
		if u.Calls[k] == 0 {
			continue
		}
		s.ByKind = append(s.ByKind, models.KindUsage{Kind: k.String(), Units: u.ByKind[k], Calls: u.Calls[k]})
	}
	return s
}

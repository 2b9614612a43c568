package ledger

import (
	"context" // Request contexts
	"fmt"     // Error wrapping
	"strconv" // Singleflight keys

	"finance_tracker/internal/domain"    // Importing domain models
	"finance_tracker/internal/recurring" // Occurrence math

	"github.com/sirupsen/logrus" // Logging library
)

var recurringFrequencies = []domain.Frequency{
	domain.Weekly,
	domain.Biweekly,
	domain.Monthly,
	domain.Yearly,
	domain.TwiceMonthly,
}

// GenerateRecurring materializes every occurrence of the user's recurring
// entries that fell due since their latest instance, up to today. Each entry
// is committed on its own; the first failure stops generation and earlier
// entries stay. It returns how many entries were created.
//
// Concurrent calls for the same user inside one process share a single run;
// callers that joined an in-flight run see its count. The shared run ignores
// the caller's cancellation so one dropped request cannot fail the others.
func (l *Ledger) GenerateRecurring(ctx context.Context, userID uint) (int, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.flight.Do(strconv.FormatUint(uint64(userID), 10), func() (any, error) {
		return l.generate(shared, userID)
	})
	return v.(int), err
}

func (l *Ledger) generate(ctx context.Context, userID uint) (int, error) {
	today := l.Today()
	created := 0

	for _, freq := range recurringFrequencies {
		templates, err := l.store.LatestByName(ctx, userID, freq)
		if err != nil {
			return created, err
		}
		for _, tmpl := range templates {
			for _, date := range recurring.Occurrences(tmpl.EntryDate, freq, today) {
				d := date
				_, err := l.Create(ctx, userID, EntryInput{
					Name:      tmpl.Name,
					Amount:    tmpl.Amount,
					Frequency: tmpl.Frequency,
					Category:  tmpl.Category,
					EntryDate: &d,
				})
				if err != nil {
					return created, fmt.Errorf("materialize %q on %s: %w", tmpl.Name, d.Format(domain.DateLayout), err)
				}
				created++
			}
		}
	}

	if created > 0 {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"created": created,
		}).Info("Recurring entries generated")
	}
	return created, nil
}

package birthday

import (
	"context"
	"fmt"
	"time"

	logx "bdaybot/pkg/logx"
)

// Source lists person records from the backing store. An absent backing file
// yields (nil, nil): the bot degrades to "no birthdays" rather than failing.
type Source interface {
	List(ctx context.Context) ([]Person, error)
}

// Index answers "whose birthday is on this day+month" over a Source.
type Index struct {
	src Source
	log logx.Logger
}

func NewIndex(src Source, log logx.Logger) *Index {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Index{src: src, log: log}
}

// QueryKey formats the day-month a record must match: zero-padded, dot-joined.
func QueryKey(day int, month time.Month) string {
	return fmt.Sprintf("%02d.%02d", day, int(month))
}

// Today returns display names of everyone whose birth date matches the given
// day and month, in source order. Records without a usable birth date are
// skipped.
func (ix *Index) Today(ctx context.Context, day int, month time.Month) ([]string, error) {
	people, err := ix.src.List(ctx)
	if err != nil {
		return nil, err
	}

	key := QueryKey(day, month)
	var names []string
	skipped := 0
	for _, p := range people {
		dm, ok := p.Birth.DayMonth()
		if !ok {
			skipped++
			continue
		}
		if dm == key {
			names = append(names, p.DisplayName())
		}
	}
	if skipped > 0 {
		ix.log.Debug("records without usable birth date skipped",
			logx.Int("skipped", skipped), logx.Int("total", len(people)))
	}
	return names, nil
}

package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// DailyLog is the daily pulse record for an owner: mood, energy and notes.
// At most one exists per (owner, date); the unique index enforces it.
type DailyLog struct {
	ID      int32
	OwnerID int32
	// Date is a calendar date in "2006-01-02" form.
	Date string

	// Mood is a 1-5 score.
	Mood int32
	// Energy is a 1-10 score.
	Energy int32

	Notes string
	Tags  []string

	CreatedTs int64
	UpdatedTs int64
}

// FindDailyLog is the find condition for daily logs.
type FindDailyLog struct {
	ID      *int32
	OwnerID *int32
	Date    *string
	// MinDate and MaxDate bound the date range, inclusive on both ends.
	MinDate *string
	MaxDate *string
}

// UpsertDailyLog is the upsert condition for a daily log, keyed (owner, date).
type UpsertDailyLog struct {
	OwnerID int32
	Date    string

	Mood   int32
	Energy int32
	Notes  string
	Tags   []string
}

func (s *Store) GetDailyLog(ctx context.Context, ownerID int32, date string) (*DailyLog, error) {
	list, err := s.driver.ListDailyLogs(ctx, &FindDailyLog{OwnerID: &ownerID, Date: &date})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListDailyLogs(ctx context.Context, find *FindDailyLog) ([]*DailyLog, error) {
	return s.driver.ListDailyLogs(ctx, find)
}

func (s *Store) UpsertDailyLog(ctx context.Context, upsert *UpsertDailyLog) (*DailyLog, error) {
	if upsert.OwnerID == 0 {
		return nil, errors.New("daily log owner required")
	}
	if upsert.Date == "" {
		return nil, errors.New("daily log date required")
	}
	if upsert.Mood < 1 || upsert.Mood > 5 {
		return nil, errors.Errorf("mood score out of range: %d", upsert.Mood)
	}
	if upsert.Energy < 1 || upsert.Energy > 10 {
		return nil, errors.Errorf("energy score out of range: %d", upsert.Energy)
	}
	return s.driver.UpsertDailyLog(ctx, upsert)
}

// ResolveDailyLog returns the log for (owner, date), creating a neutral one
// lazily the first time something is recorded against that date.
func (s *Store) ResolveDailyLog(ctx context.Context, ownerID int32, date string) (*DailyLog, error) {
	log, err := s.GetDailyLog(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	if log != nil {
		return log, nil
	}
	return s.UpsertDailyLog(ctx, &UpsertDailyLog{
		OwnerID: ownerID,
		Date:    date,
		Mood:    3,
		Energy:  5,
	})
}

// TagsToCSV serializes daily log tags for storage.
func TagsToCSV(tags []string) string {
	return strings.Join(tags, ",")
}

// TagsFromCSV parses stored daily log tags.
func TagsFromCSV(csv string) []string {
	if csv == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/reporting-engine/internal/idcodec"
	"github.com/noah-isme/reporting-engine/internal/models"
)

type userDay struct {
	userID string
	date   idcodec.Date
}

type dayBucket struct {
	sessions int
	finished int
	users    map[string]struct{}
}

// BuildDailyStats collapses activity into one session per (user, day), then
// rolls those up per day. Records whose identifier does not decode are
// dropped. The series is ascending by date; user totals count each user
// once across the whole window.
func BuildDailyStats(records []models.ActivityRecord, codec idcodec.Codec, logger *zap.Logger) models.LiveQuizStats {
	if logger == nil {
		logger = zap.NewNop()
	}

	ended := make(map[userDay]bool)
	skipped := 0
	for _, rec := range records {
		date, err := codec.DecodeDate(rec.ID)
		if err != nil {
			skipped++
			continue
		}
		key := userDay{userID: rec.UserID, date: date}
		ended[key] = ended[key] || rec.HasQuizEnded
	}
	if skipped > 0 {
		logger.Warn("activity records with undecodable identifiers skipped", zap.Int("count", skipped))
	}

	days := make(map[idcodec.Date]*dayBucket)
	for key, finished := range ended {
		b, ok := days[key.date]
		if !ok {
			b = &dayBucket{users: make(map[string]struct{})}
			days[key.date] = b
		}
		b.sessions++
		b.users[key.userID] = struct{}{}
		if finished {
			b.finished++
		}
	}

	stats := models.LiveQuizStats{Daywise: make([]models.DailyStat, 0, len(days))}
	allUsers := make(map[string]struct{})
	for date, b := range days {
		stats.Daywise = append(stats.Daywise, models.DailyStat{
			Date:             date,
			UniqueSessions:   b.sessions,
			UniqueUsers:      len(b.users),
			FinishedSessions: b.finished,
		})
		stats.TotalFinishedSessions += b.finished
		for user := range b.users {
			allUsers[user] = struct{}{}
		}
	}
	sort.Slice(stats.Daywise, func(i, j int) bool {
		return stats.Daywise[i].Date.Before(stats.Daywise[j].Date)
	})

	stats.TotalUniqueUsers = len(allUsers)
	stats.TotalSessions = stats.TotalUniqueUsers
	return stats
}

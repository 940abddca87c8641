package service

import (
	"time"

	"github.com/noah-isme/hall-booking-api/internal/models"
)

// ResolveBlocked reports the first active rule that forbids any part of the
// interval. Rules have day or hour granularity, so it is enough to probe the
// start and every hour boundary inside the interval.
func ResolveBlocked(interval models.Interval, rules []models.BlockedTime) (*models.BlockedTime, bool) {
	for _, moment := range probeMoments(interval) {
		if rule, ok := BlockedAt(moment, rules); ok {
			return rule, true
		}
	}
	return nil, false
}

// BlockedAt returns the first active rule blocking the moment t.
func BlockedAt(t time.Time, rules []models.BlockedTime) (*models.BlockedTime, bool) {
	for i := range rules {
		if rules[i].Blocks(t) {
			return &rules[i], true
		}
	}
	return nil, false
}

func probeMoments(interval models.Interval) []time.Time {
	if !interval.Valid() {
		return []time.Time{interval.Start}
	}
	moments := []time.Time{interval.Start}
	for t := interval.Start.Truncate(time.Hour).Add(time.Hour); t.Before(interval.End); t = t.Add(time.Hour) {
		moments = append(moments, t)
	}
	return moments
}

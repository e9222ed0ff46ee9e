package cnn

import (
	"errors"
	"time"

	"github.com/CunXin1/fearwatch/internal/models"
)

// normalizeItem converts a raw API item into a Reading. The API is
// inconsistent about carrying a full RFC 3339 timestamp or only a bare date;
// both are accepted, with fetchedAt as the last-resort fallback.
func normalizeItem(indexName string, item indexItem, fetchedAt time.Time) (models.Reading, error) {
	if item.Score == nil {
		return models.Reading{}, errors.New("item has no score")
	}

	observed, err := resolveTimestamp(item, fetchedAt)
	if err != nil {
		return models.Reading{}, err
	}

	return models.Reading{
		IndexName:  indexName,
		Date:       observed.UTC().Format("2006-01-02"),
		Score:      *item.Score,
		Rating:     item.Rating,
		ObservedAt: observed,
		Source:     "CNN",
	}, nil
}

func resolveTimestamp(item indexItem, fetchedAt time.Time) (time.Time, error) {
	if item.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, item.Timestamp)
		if err != nil {
			return time.Time{}, errors.New("malformed timestamp")
		}
		return ts, nil
	}
	if item.Date != "" {
		ts, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			return time.Time{}, errors.New("malformed date")
		}
		return ts.UTC(), nil
	}
	return fetchedAt, nil
}

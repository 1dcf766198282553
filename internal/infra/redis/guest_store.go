package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sat-prep-service/internal/domain"
)

const (
	guestStatsKey = "satprep:guest:stats"
	guestDailyKey = "satprep:guest:daily"
	guestThemeKey = "satprep:guest:theme"
)

// GuestStore persists the anonymous progress slot in plain Redis keys,
// read at startup and written on every relevant mutation.
type GuestStore struct {
	client *redis.Client
}

func NewGuestStore(client *redis.Client) *GuestStore {
	return &GuestStore{client: client}
}

func (s *GuestStore) Load(ctx context.Context) (domain.Stats, domain.Daily, bool, error) {
	rawStats, err := s.client.Get(ctx, guestStatsKey).Result()
	if err == redis.Nil {
		return domain.Stats{}, domain.Daily{}, false, nil
	}
	if err != nil {
		return domain.Stats{}, domain.Daily{}, false, fmt.Errorf("load guest stats: %w", err)
	}

	var stats domain.Stats
	if err := json.Unmarshal([]byte(rawStats), &stats); err != nil {
		return domain.Stats{}, domain.Daily{}, false, fmt.Errorf("unmarshal guest stats: %w", err)
	}

	var daily domain.Daily
	rawDaily, err := s.client.Get(ctx, guestDailyKey).Result()
	if err != nil && err != redis.Nil {
		return domain.Stats{}, domain.Daily{}, false, fmt.Errorf("load guest daily: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal([]byte(rawDaily), &daily); err != nil {
			return domain.Stats{}, domain.Daily{}, false, fmt.Errorf("unmarshal guest daily: %w", err)
		}
	}
	return domain.NormalizeStats(stats), daily, true, nil
}

func (s *GuestStore) Save(ctx context.Context, stats domain.Stats, daily domain.Daily) error {
	rawStats, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal guest stats: %w", err)
	}
	rawDaily, err := json.Marshal(daily)
	if err != nil {
		return fmt.Errorf("marshal guest daily: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, guestStatsKey, rawStats, 0)
	pipe.Set(ctx, guestDailyKey, rawDaily, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save guest progress: %w", err)
	}
	return nil
}

func (s *GuestStore) Theme(ctx context.Context) (string, error) {
	theme, err := s.client.Get(ctx, guestThemeKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	return theme, nil
}

func (s *GuestStore) SetTheme(ctx context.Context, theme string) error {
	if err := s.client.Set(ctx, guestThemeKey, theme, 0).Err(); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

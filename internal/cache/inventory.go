package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	WorkshopCardKeyPrefix  = "workshop:card:%d"
	WorkshopCardsKeyPrefix = "workshop:cards:%d"
	LevelInfoKeyPrefix     = "xp:level:%d"
	CommunityCardKeyPrefix = "community:%s"
)

const (
	WorkshopCardTTL  = 10 * time.Minute
	WorkshopCardsTTL = 2 * time.Minute
	LevelInfoTTL     = 5 * time.Minute
	CommunityTTL     = 10 * time.Minute
)

func WorkshopCardKey(workshopID uint) string {
	return fmt.Sprintf(WorkshopCardKeyPrefix, workshopID)
}

// WorkshopCardsKey names the first published-cards page for a given
// page size. Different limits cache separately.
func WorkshopCardsKey(limit int) string {
	return fmt.Sprintf(WorkshopCardsKeyPrefix, limit)
}

func LevelInfoKey(userID uint) string {
	return fmt.Sprintf(LevelInfoKeyPrefix, userID)
}

func CommunityKey(slug string) string {
	return fmt.Sprintf(CommunityCardKeyPrefix, slug)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePattern drops every key matching a glob pattern.
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

// InvalidateWorkshop drops the cached card and every published-cards
// listing page.
func InvalidateWorkshop(ctx context.Context, workshopID uint) {
	Invalidate(ctx, WorkshopCardKey(workshopID))
	InvalidatePattern(ctx, "workshop:cards:*")
}

// InvalidateLevelInfo drops the cached leveling view for a user.
func InvalidateLevelInfo(ctx context.Context, userID uint) {
	Invalidate(ctx, LevelInfoKey(userID))
}

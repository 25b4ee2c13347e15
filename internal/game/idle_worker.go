package game

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/slamdunk/internal/config"
)

// StartIdleWorker starts a background worker that closes tables nobody has
// touched for TableIdleMinutes. With Redis it sweeps the table_idle sorted set
// shared by every process; without it, the tables held in memory.
func StartIdleWorker(ctx context.Context, tm *TableManager, rdb *redis.Client, cfg *config.Config) {
	if tm == nil || cfg == nil {
		log.Warn("[IDLE] manager or config missing; idle worker not started")
		return
	}

	log.Info("[IDLE] idle worker started", "poll_seconds", cfg.IdleWorkerPollInterval, "idle_minutes", cfg.TableIdleMinutes, "redis", rdb != nil)
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.IdleWorkerPollInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("[IDLE] idle worker stopping")
				return
			case <-ticker.C:
				if rdb != nil {
					sweepIdleTables(ctx, tm, rdb, cfg, time.Now())
				} else {
					sweepLocalIdleTables(tm, cfg, time.Now())
				}
			}
		}
	}()
}

// sweepLocalIdleTables closes in-memory tables whose last activity is older
// than TableIdleMinutes.
func sweepLocalIdleTables(tm *TableManager, cfg *config.Config, now time.Time) {
	idleFor := time.Duration(cfg.TableIdleMinutes) * time.Minute
	for _, token := range tm.IdleTokens(now.Add(-idleFor)) {
		if err := tm.CloseTable(token, CloseReasonIdle); err != nil {
			log.Warn("[IDLE] failed to close idle table", "token", token, "error", err)
			continue
		}
		log.Info("[IDLE] closed idle table", "token", token)
	}
}

// sweepIdleTables closes every table whose idle deadline is at or before now.
func sweepIdleTables(ctx context.Context, tm *TableManager, rdb *redis.Client, cfg *config.Config, now time.Time) {
	members, err := rdb.ZRangeByScore(ctx, IdleSet, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		log.Warn("[IDLE] failed to fetch idle tables", "error", err)
		return
	}

	idleFor := int64(cfg.TableIdleMinutes) * 60
	for _, token := range members {
		// Attempt to remove (race-safe): only the worker that removes the member closes the table.
		if removed, _ := rdb.ZRem(ctx, IdleSet, token).Result(); removed == 0 {
			continue
		}

		last, _ := rdb.Get(ctx, lastActiveKey(token)).Result()
		lastTs, _ := strconv.ParseInt(last, 10, 64)
		if now.Unix()-lastTs < idleFor {
			// Touched after the deadline was read; reschedule.
			rdb.ZAdd(ctx, IdleSet, redis.Z{Score: float64(lastTs + idleFor), Member: token})
			continue
		}

		if err := tm.CloseTable(token, CloseReasonIdle); err != nil {
			log.Warn("[IDLE] failed to close idle table", "token", token, "error", err)
			continue
		}
		log.Info("[IDLE] closed idle table", "token", token, "last_active", time.Unix(lastTs, 0).Format(time.RFC3339))
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// Transcript operations (Redis-backed)

func transcriptKey(sessionID uuid.UUID) string {
	return "transcript:" + sessionID.String()
}

// AppendTurn pushes rec onto the session's transcript and refreshes its TTL.
func (r *RedisStorage) AppendTurn(ctx context.Context, sessionID uuid.UUID, rec storage.TurnRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("Failed to marshal turn record", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to marshal turn record: %w", err)
	}

	key := transcriptKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.Expire(ctx, key, r.transcriptTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to append turn", "session_id", sessionID, "turn", rec.Turn, "error", err)
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Transcript returns every recorded turn in order. A missing transcript is
// empty, not an error.
func (r *RedisStorage) Transcript(ctx context.Context, sessionID uuid.UUID) ([]storage.TurnRecord, error) {
	entries, err := r.client.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Error("Failed to load transcript", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	records := make([]storage.TurnRecord, 0, len(entries))
	for i, entry := range entries {
		var rec storage.TurnRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			r.logger.Warn("Skipping corrupt transcript entry", "session_id", sessionID, "position", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *RedisStorage) DeleteTranscript(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.client.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		r.logger.Error("Failed to delete transcript", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

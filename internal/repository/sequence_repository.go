package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SequenceRepository allocates student sequence numbers from the
// student_sequences table with a single atomic upsert.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs a SequenceRepository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// NextStudentSequence increments and returns the year's counter.
func (r *SequenceRepository) NextStudentSequence(ctx context.Context, year int) (int64, error) {
	const query = `INSERT INTO student_sequences (year, value) VALUES ($1, 1)
ON CONFLICT (year) DO UPDATE SET value = student_sequences.value + 1
RETURNING value`
	var value int64
	if err := r.db.GetContext(ctx, &value, query, year); err != nil {
		return 0, classify(err, "next student sequence")
	}
	return value, nil
}

// RedisSequence allocates student sequence numbers with Redis INCR, shared
// by every API instance pointed at the same Redis.
type RedisSequence struct {
	client *redis.Client
	prefix string
}

// NewRedisSequence constructs a RedisSequence. Keys are "<prefix>:<year>".
func NewRedisSequence(client *redis.Client, prefix string) *RedisSequence {
	if prefix == "" {
		prefix = "crm:student_seq"
	}
	return &RedisSequence{client: client, prefix: prefix}
}

// NextStudentSequence increments and returns the year's counter.
func (r *RedisSequence) NextStudentSequence(ctx context.Context, year int) (int64, error) {
	key := fmt.Sprintf("%s:%d", r.prefix, year)
	value, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return value, nil
}

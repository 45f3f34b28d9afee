package qrtoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry shares live tokens between API replicas. Keys carry a TTL of
// twice the validity window purely for housekeeping.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry builds a registry under the given key prefix.
func NewRedisRegistry(client *redis.Client, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "attendance:token"
	}
	return &RedisRegistry{client: client, prefix: prefix}
}

func (r *RedisRegistry) issuerKey(id string) string    { return r.prefix + ":issuer:" + id }
func (r *RedisRegistry) teacherKey(name string) string { return r.prefix + ":teacher:" + name }

func (r *RedisRegistry) Put(ctx context.Context, t Token) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.issuerKey(t.IssuerID), body, 2*Validity)
		p.Set(ctx, r.teacherKey(t.TeacherName), t.IssuerID, 2*Validity)
		return nil
	})
	return err
}

func (r *RedisRegistry) ByIssuer(ctx context.Context, issuerID string) (Token, bool, error) {
	raw, err := r.client.Get(ctx, r.issuerKey(issuerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, err
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return Token{}, false, fmt.Errorf("decode token: %w", err)
	}
	return t, true, nil
}

func (r *RedisRegistry) ByTeacher(ctx context.Context, teacherName string) (Token, bool, error) {
	id, err := r.client.Get(ctx, r.teacherKey(teacherName)).Result()
	if errors.Is(err, redis.Nil) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, err
	}
	return r.ByIssuer(ctx, id)
}

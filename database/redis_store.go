package database

import (
	"context"
	"errors"
	"fmt"
	"goldenapp/models"

	"github.com/redis/go-redis/v9"
)

// RedisLedgerStore хранит картеру арендатора строкой JSON под ключом арендатора
type RedisLedgerStore struct {
	client *redis.Client
}

// NewRedisLedgerStore создает новый экземпляр RedisLedgerStore
func NewRedisLedgerStore(client *redis.Client) *RedisLedgerStore {
	return &RedisLedgerStore{client: client}
}

// NewRedisClient подключается к redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка подключения к redis %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisLedgerStore) Load(ctx context.Context, tenantKey string) ([]models.InstallmentRecord, error) {
	payload, err := s.client.Get(ctx, tenantKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.InstallmentRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s from redis: %w", tenantKey, err)
	}
	return decodeLedger(payload)
}

func (s *RedisLedgerStore) Save(ctx context.Context, tenantKey string, records []models.InstallmentRecord) error {
	payload, err := encodeLedger(records)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, tenantKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("write ledger %s to redis: %w", tenantKey, err)
	}
	return nil
}

package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yazedalasad/bloodbank/internal/platform/redis"
	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
)

const emergencyKeyPrefix = "emergency_request:"

// RedisEmergencyStore keeps emergency requests in redis under a TTL matching
// the 24-hour active window. Expiry needs no sweeper: redis drops the key and
// the request stops existing.
//
// A consequence of TTL-based expiry is that FindByID cannot distinguish an
// expired request from one that never existed; both come back ErrNotFound.
type RedisEmergencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEmergencyStore(client *redis.Client, ttl time.Duration) *RedisEmergencyStore {
	return &RedisEmergencyStore{client: client, ttl: ttl}
}

func emergencyKey(requestID id.RequestID) string {
	return emergencyKeyPrefix + requestID.String()
}

func (s *RedisEmergencyStore) Create(ctx context.Context, e *EmergencyRequest) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal emergency request: %w", err)
	}
	ok, err := s.client.SetNX(ctx, emergencyKey(e.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store emergency request: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisEmergencyStore) FindByID(ctx context.Context, requestID id.RequestID) (*EmergencyRequest, error) {
	payload, err := s.client.Get(ctx, emergencyKey(requestID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load emergency request: %w", err)
	}
	var e EmergencyRequest
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("unmarshal emergency request: %w", err)
	}
	return &e, nil
}

func (s *RedisEmergencyStore) ListActive(ctx context.Context) ([]*EmergencyRequest, error) {
	var out []*EmergencyRequest
	iter := s.client.Scan(ctx, 0, emergencyKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// Key expired between SCAN and GET.
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return nil, fmt.Errorf("load emergency request: %w", err)
		}
		var e EmergencyRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("unmarshal emergency request: %w", err)
		}
		out = append(out, &e)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan emergency requests: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.PairingStore = (*Storage)(nil)

func (s *Storage) SavePairing(ctx context.Context, pairing *model.Pairing) error {
	data, err := json.Marshal(pairing)
	if err != nil {
		return err
	}

	// Value and index are written together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, pairingKey(pairing.MatchID), data, s.cfg.PairingTTL)
	pipe.ZAdd(ctx, pairingsIndexKey(), redis.Z{
		Score:  float64(pairing.PairedAt.UnixMilli()),
		Member: string(pairing.MatchID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPairing(ctx context.Context, id model.MatchID) (*model.Pairing, error) {
	data, err := s.client.Get(ctx, pairingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPairingNotFound
		}
		return nil, err
	}

	var pairing model.Pairing
	if err := json.Unmarshal(data, &pairing); err != nil {
		return nil, err
	}
	return &pairing, nil
}

// ListPairings returns up to limit pairings, newest first. Index entries
// whose value has expired are removed and the page is read again, so a
// short page means there are no older live pairings.
func (s *Storage) ListPairings(ctx context.Context, limit int) ([]*model.Pairing, error) {
	for {
		pairings, expired, err := s.readPage(ctx, limit)
		if err != nil {
			return nil, err
		}
		if len(expired) == 0 {
			return pairings, nil
		}
		// Each pass removes at least one stale member
		if err := s.client.ZRem(ctx, pairingsIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}
}

// readPage reads the newest limit index entries and returns the live
// pairings plus the ids whose value has expired
func (s *Storage) readPage(ctx context.Context, limit int) ([]*model.Pairing, []any, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := s.client.ZRevRange(ctx, pairingsIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return []*model.Pairing{}, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = pairingKey(model.MatchID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, err
	}

	pairings := make([]*model.Pairing, 0, len(values))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var p model.Pairing
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, nil, err
		}
		pairings = append(pairings, &p)
	}
	return pairings, expired, nil
}

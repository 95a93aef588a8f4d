package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/process"
)

// DefaultPrefix namespaces process keys
const DefaultPrefix = "shift:process:"

// Service keeps process documents in Redis. Each process lives under
// prefix+id and the ids are tracked in the prefix+"index" set.
type Service struct {
	client *redis.Client
	prefix string
}

var _ dao.Service[string, execution.Process] = (*Service)(nil)

// Save persists a process
func (s *Service) Save(ctx context.Context, p *execution.Process) error {
	data, err := process.Encode(p)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(p.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), p.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save process %v: %w", p.ID, err)
	}
	return nil
}

// Load retrieves a process
func (s *Service) Load(ctx context.Context, id string) (*execution.Process, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("process %v: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load process %v: %w", id, err)
	}
	return process.Decode(data)
}

// Delete removes a process
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete process %v: %w", id, err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("process %v: %w", id, dao.ErrNotFound)
	}
	return nil
}

// List returns processes matching the parameters, ordered by id
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Process, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list process ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load processes: %w", err)
	}
	var ret []*execution.Process
	for i, value := range values {
		text, ok := value.(string)
		if !ok {
			continue // removed between SMEMBERS and MGET
		}
		p, err := process.Decode([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ids[i], err)
		}
		if process.Matches(p, parameters) {
			ret = append(ret, p)
		}
	}
	return ret, nil
}

func (s *Service) key(id string) string {
	return s.prefix + id
}

func (s *Service) indexKey() string {
	return s.prefix + "index"
}

// New creates a Redis process store; an empty prefix selects DefaultPrefix
func New(client *redis.Client, prefix string) (*Service, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Service{client: client, prefix: prefix}, nil
}

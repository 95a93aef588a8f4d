package bolt

import (
	"context"
	"fmt"

	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/dao/process"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("processes")

// Service keeps process documents in a BoltDB bucket keyed by process id
type Service struct {
	db *bbolt.DB
}

var _ dao.Service[string, execution.Process] = (*Service)(nil)

// Save persists a process
func (s *Service) Save(ctx context.Context, p *execution.Process) error {
	data, err := process.Encode(p)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(p.ID), data)
	})
}

// Load retrieves a process
func (s *Service) Load(ctx context.Context, id string) (*execution.Process, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketName).Get([]byte(id))
		if value == nil {
			return fmt.Errorf("process %v: %w", id, dao.ErrNotFound)
		}
		// values are only valid for the life of the transaction
		data = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return process.Decode(data)
}

// Delete removes a process
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("process %v: %w", id, dao.ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// List returns processes matching the parameters, in key order
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ret []*execution.Process
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(key, value []byte) error {
			p, err := process.Decode(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if process.Matches(p, parameters) {
				ret = append(ret, p)
			}
			return nil
		})
	})
	return ret, err
}

// Close releases the database file
func (s *Service) Close() error {
	return s.db.Close()
}

// New opens (or creates) a BoltDB file holding processes
func New(path string) (*Service, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open process database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create process bucket: %w", err)
	}
	return &Service{db: db}, nil
}

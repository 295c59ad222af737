package repository

import (
	"context"

	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	if tx == nil {
		return r
	}
	return &store[T]{db: tx}
}

func (r *store[T]) Find(ctx context.Context, query *T, opts ...QueryOption) ([]*T, error) {
	var result []*T
	if err := r.query(ctx, query, opts...).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// FindOne uses Limit+Find so a miss is not reported as ErrRecordNotFound
// and never reaches the query logger as an error.
func (r *store[T]) FindOne(ctx context.Context, query *T, opts ...QueryOption) (*T, error) {
	var result []*T
	if err := r.query(ctx, query, opts...).Limit(1).Find(&result).Error; err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Count(ctx context.Context, query *T, opts ...QueryOption) (int64, error) {
	var count int64
	err := r.query(ctx, query, opts...).Count(&count).Error
	return count, err
}

func (r *store[T]) Exists(ctx context.Context, query *T, opts ...QueryOption) (bool, error) {
	count, err := r.Count(ctx, query, append(opts, WithLimit(1))...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *store[T]) query(ctx context.Context, filter *T, opts ...QueryOption) *gorm.DB {
	stmt := r.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		stmt = stmt.Where(filter)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	return stmt
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package sqlstore contains a Postgres-backed implementation of the
// interfaces in the store package.
package sqlstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lyc59621/chatbackup/store"
)

// Container wraps a pgx connection pool and implements the interaction and
// thread stores on top of it.
type Container struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ store.InteractionStore = (*Container)(nil)
var _ store.ThreadStore = (*Container)(nil)

// New connects to the given database and upgrades the schema to the latest
// version.
func New(ctx context.Context, dsn string, log zerolog.Logger) (*Container, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	container := NewWithPool(pool, log)
	err = container.Upgrade(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to upgrade database: %w", err)
	}
	return container, nil
}

// NewWithPool wraps an existing connection pool. The caller is expected to
// have run Upgrade already.
func NewWithPool(pool *pgxpool.Pool, log zerolog.Logger) *Container {
	return &Container{Pool: pool, log: log}
}

// Close closes the underlying connection pool.
func (c *Container) Close() {
	c.Pool.Close()
}

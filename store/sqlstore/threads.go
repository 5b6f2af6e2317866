// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lyc59621/chatbackup/types"
)

const (
	getThreadQuery     = `SELECT id, recipient_id, title, created_at FROM chatbackup_threads WHERE id=$1`
	getAllThreadsQuery = `SELECT id, recipient_id, title, created_at FROM chatbackup_threads ORDER BY created_at, id`
	putThreadQuery     = `
		INSERT INTO chatbackup_threads (id, recipient_id, title, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET recipient_id=excluded.recipient_id, title=excluded.title
	`
)

// Fetch returns the thread with the given unique ID, or nil if there is no
// such thread.
func (c *Container) Fetch(ctx context.Context, tx pgx.Tx, id types.ThreadID) (*types.Thread, error) {
	thread, err := scanThread(tx.QueryRow(ctx, getThreadQuery, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return thread, err
}

// Put upserts one thread row.
func (c *Container) Put(ctx context.Context, tx pgx.Tx, thread *types.Thread) error {
	_, err := tx.Exec(ctx, putThreadQuery,
		thread.ID.String(), int64(thread.Recipient), thread.Title, thread.CreatedAt.UnixMilli(),
	)
	return err
}

// GetAll returns all threads in creation order.
func (c *Container) GetAll(ctx context.Context, tx pgx.Tx) ([]*types.Thread, error) {
	rows, err := tx.Query(ctx, getAllThreadsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var threads []*types.Thread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

func scanThread(row pgx.Row) (*types.Thread, error) {
	var id, title string
	var recipientID, createdAt int64
	err := row.Scan(&id, &recipientID, &title, &createdAt)
	if err != nil {
		return nil, err
	}
	return &types.Thread{
		ID:        types.ThreadID(id),
		Recipient: types.RecipientID(recipientID),
		Title:     title,
		CreatedAt: time.UnixMilli(createdAt),
	}, nil
}

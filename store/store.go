// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package store contains interfaces for the storage collaborators the backup
// archiver reads interactions and threads from.
//
// Transaction lifetime is always owned by the caller: an entire archive pass
// runs inside one read transaction and the restore of one record runs inside
// one write transaction, both passed in from outside. Implementations must
// never begin, commit, or retry transactions themselves.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lyc59621/chatbackup/types"
)

// InteractionStore provides access to interaction rows.
type InteractionStore interface {
	// EnumerateAll calls fn for every interaction in a stable storage-defined
	// order, with reactions and edit revisions attached. Enumeration stops
	// early when fn returns true. The returned error is an iteration-level
	// fault of the underlying query, not a per-item condition.
	EnumerateAll(ctx context.Context, tx pgx.Tx, fn func(interaction *types.Interaction) (stop bool)) error

	// InsertInteraction writes one restored interaction, including its
	// attached reactions and revisions.
	InsertInteraction(ctx context.Context, tx pgx.Tx, interaction *types.Interaction) error
}

// ThreadStore provides access to thread rows.
type ThreadStore interface {
	// Fetch returns the thread with the given unique ID, or nil if there is
	// no such thread.
	Fetch(ctx context.Context, tx pgx.Tx, id types.ThreadID) (*types.Thread, error)

	// Put writes one thread row.
	Put(ctx context.Context, tx pgx.Tx, thread *types.Thread) error

	// GetAll returns all threads. Used to build the session context before an
	// archive pass.
	GetAll(ctx context.Context, tx pgx.Tx) ([]*types.Thread, error)
}

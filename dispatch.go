// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/store"
	"github.com/lyc59621/chatbackup/types"
)

// InteractionArchiver is one message-category-specific converter. The
// orchestrator dispatches each interaction to the first variant whose
// CanArchive predicate matches, and each backup record to the first variant
// whose CanRestore predicate matches.
//
// Predicates must be cheap, side-effect free, and non-overlapping: no two
// variants in the same dispatch list may claim the same input. That invariant
// is enforced by the implementer, not checked at runtime.
type InteractionArchiver interface {
	// CanArchive reports whether this variant converts the given interaction.
	CanArchive(interaction *types.Interaction) bool
	// CanRestore reports whether this variant restores the given backup record.
	CanRestore(item *frames.ChatItem) bool

	// Archive converts one interaction into archive details.
	Archive(ctx context.Context, interaction *types.Interaction, mapping *MappingContext) ArchiveItemResult
	// Restore reconstructs one interaction from a backup record into the
	// given thread, inside the caller-owned write transaction.
	Restore(ctx context.Context, tx pgx.Tx, item *frames.ChatItem, thread *types.Thread, mapping *MappingContext) RestoreItemResult
}

// DefaultVariants returns the built-in archiver variants in dispatch priority
// order.
func DefaultVariants(interactions store.InteractionStore) []InteractionArchiver {
	content := NewContentArchiver()
	return []InteractionArchiver{
		NewIncomingMessageArchiver(interactions, content),
		NewOutgoingMessageArchiver(interactions, content),
		NewChatUpdateArchiver(interactions),
	}
}

// selectArchiver returns the first variant claiming the interaction, or nil.
func (arc *ChatItemArchiver) selectArchiver(interaction *types.Interaction) InteractionArchiver {
	for _, variant := range arc.variants {
		if variant.CanArchive(interaction) {
			return variant
		}
	}
	return nil
}

// selectRestorer returns the first variant claiming the record, or nil.
func (arc *ChatItemArchiver) selectRestorer(item *frames.ChatItem) InteractionArchiver {
	for _, variant := range arc.variants {
		if variant.CanRestore(item) {
			return variant
		}
	}
	return nil
}

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

// OutgoingMessageArchiver converts messages sent by the local user, including
// remote-delete tombstones they left behind.
type OutgoingMessageArchiver struct {
	messageArchiver
}

var _ InteractionArchiver = (*OutgoingMessageArchiver)(nil)

// NewOutgoingMessageArchiver creates the variant handling outgoing messages.
func NewOutgoingMessageArchiver(interactions store.InteractionStore, content *ContentArchiver) *OutgoingMessageArchiver {
	return &OutgoingMessageArchiver{messageArchiver{
		interactions: interactions,
		content:      content,
		outgoing:     true,
	}}
}

func (oma *OutgoingMessageArchiver) CanArchive(interaction *types.Interaction) bool {
	return interaction.Direction == types.DirectionOutgoing
}

func (oma *OutgoingMessageArchiver) CanRestore(item *frames.ChatItem) bool {
	return item.Outgoing && isMessagePayload(item)
}

func (oma *OutgoingMessageArchiver) Archive(ctx context.Context, interaction *types.Interaction, mapping *MappingContext) ArchiveItemResult {
	return oma.archiveMessage(interaction)
}

func (oma *OutgoingMessageArchiver) Restore(ctx context.Context, tx pgx.Tx, item *frames.ChatItem, thread *types.Thread, mapping *MappingContext) RestoreItemResult {
	return oma.restoreMessage(ctx, tx, item, thread)
}

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

// IncomingMessageArchiver converts received messages.
type IncomingMessageArchiver struct {
	messageArchiver
}

var _ InteractionArchiver = (*IncomingMessageArchiver)(nil)

// NewIncomingMessageArchiver creates the variant handling incoming messages.
func NewIncomingMessageArchiver(interactions store.InteractionStore, content *ContentArchiver) *IncomingMessageArchiver {
	return &IncomingMessageArchiver{messageArchiver{
		interactions: interactions,
		content:      content,
		outgoing:     false,
	}}
}

func (ima *IncomingMessageArchiver) CanArchive(interaction *types.Interaction) bool {
	return interaction.Direction == types.DirectionIncoming
}

func (ima *IncomingMessageArchiver) CanRestore(item *frames.ChatItem) bool {
	return !item.Outgoing && isMessagePayload(item)
}

func (ima *IncomingMessageArchiver) Archive(ctx context.Context, interaction *types.Interaction, mapping *MappingContext) ArchiveItemResult {
	return ima.archiveMessage(interaction)
}

func (ima *IncomingMessageArchiver) Restore(ctx context.Context, tx pgx.Tx, item *frames.ChatItem, thread *types.Thread, mapping *MappingContext) RestoreItemResult {
	return ima.restoreMessage(ctx, tx, item, thread)
}

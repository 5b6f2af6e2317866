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

// ChatUpdateArchiver converts non-message thread events: expiration timer
// changes, profile changes, group updates.
type ChatUpdateArchiver struct {
	interactions store.InteractionStore
}

var _ InteractionArchiver = (*ChatUpdateArchiver)(nil)

// NewChatUpdateArchiver creates the variant handling chat update events.
func NewChatUpdateArchiver(interactions store.InteractionStore) *ChatUpdateArchiver {
	return &ChatUpdateArchiver{interactions: interactions}
}

func (cua *ChatUpdateArchiver) CanArchive(interaction *types.Interaction) bool {
	return interaction.Direction == types.DirectionChatUpdate
}

func (cua *ChatUpdateArchiver) CanRestore(item *frames.ChatItem) bool {
	_, ok := item.Payload.(*frames.ChatUpdate)
	return ok
}

func (cua *ChatUpdateArchiver) Archive(ctx context.Context, interaction *types.Interaction, mapping *MappingContext) ArchiveItemResult {
	// Chat updates are never edited and never disappear, so there is no
	// revision or expiration handling here.
	return ArchiveSuccess(&ArchiveDetails{
		Author:   interaction.Author,
		DateSent: interaction.Timestamp,
		Payload: &frames.ChatUpdate{
			Kind: interaction.UpdateKind,
			Body: interaction.Body,
		},
	})
}

func (cua *ChatUpdateArchiver) Restore(ctx context.Context, tx pgx.Tx, item *frames.ChatItem, thread *types.Thread, mapping *MappingContext) RestoreItemResult {
	payload, ok := item.Payload.(*frames.ChatUpdate)
	if !ok {
		return RestoreItemFailure(ErrNoPayload)
	}
	interaction := &types.Interaction{
		ID:         types.NewInteractionID(),
		ThreadID:   thread.ID,
		Author:     item.AuthorID,
		Timestamp:  item.DateSent(),
		Direction:  types.DirectionChatUpdate,
		Kind:       types.KindChatUpdate,
		UpdateKind: payload.Kind,
		Body:       payload.Body,
	}
	err := cua.interactions.InsertInteraction(ctx, tx, interaction)
	if err != nil {
		return RestoreItemFailure(err)
	}
	return RestoreItemSuccess()
}

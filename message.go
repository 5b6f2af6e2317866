// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/store"
	"github.com/lyc59621/chatbackup/types"
)

// messageArchiver is the shared conversion logic behind the incoming and
// outgoing message variants, which differ only in their predicates and the
// direction they stamp on restored interactions.
type messageArchiver struct {
	interactions store.InteractionStore
	content      *ContentArchiver
	outgoing     bool
}

func (ma *messageArchiver) archiveMessage(interaction *types.Interaction) ArchiveItemResult {
	if interaction.IsPastRevision() {
		// Already carried inside its current revision's frame.
		return ArchivePastRevision()
	}
	if interaction.Kind == types.KindViewOnce {
		return ArchiveNotYetImplemented()
	}
	payload, partialErrs, err := ma.content.ArchivePayload(interaction)
	if err != nil {
		return ArchiveMessageFailure(err)
	}
	details := &ArchiveDetails{
		Author:       interaction.Author,
		DateSent:     interaction.Timestamp,
		Outgoing:     ma.outgoing,
		SealedSender: interaction.SealedSender,
		SMS:          interaction.SMS,
		ExpireStart:  interaction.ExpireStart,
		ExpiresIn:    interaction.ExpiresIn,
		Payload:      payload,
	}
	for _, revision := range interaction.Revisions {
		revItem, revErrs := ma.archiveRevision(revision)
		partialErrs = append(partialErrs, revErrs...)
		if revItem != nil {
			details.Revisions = append(details.Revisions, revItem)
		}
	}
	if len(partialErrs) > 0 {
		return ArchivePartialFailure(details, partialErrs...)
	}
	return ArchiveSuccess(details)
}

// archiveRevision converts one edit-history entry into a nested record. A
// revision that can't be converted is dropped with an error; it must not sink
// the current revision's frame.
func (ma *messageArchiver) archiveRevision(revision *types.Interaction) (*frames.ChatItem, []error) {
	payload, partialErrs, err := ma.content.ArchivePayload(revision)
	if err != nil {
		return nil, append(partialErrs, fmt.Errorf("revision %s: %w", revision.ID, err))
	}
	return &frames.ChatItem{
		AuthorID:     revision.Author,
		DateSentMS:   revision.Timestamp.UnixMilli(),
		Outgoing:     ma.outgoing,
		SealedSender: revision.SealedSender,
		SMS:          revision.SMS,
		Payload:      payload,
	}, partialErrs
}

func (ma *messageArchiver) restoreMessage(ctx context.Context, tx pgx.Tx, item *frames.ChatItem, thread *types.Thread) RestoreItemResult {
	interaction := ma.interactionFromItem(item, thread)
	partialErrs, err := ma.content.RestorePayload(item, interaction)
	if err != nil {
		return RestoreItemFailure(err)
	}
	for _, revItem := range item.Revisions {
		revision := ma.interactionFromItem(revItem, thread)
		revision.PastRevisionOf = interaction.ID
		revErrs, revErr := ma.content.RestorePayload(revItem, revision)
		partialErrs = append(partialErrs, revErrs...)
		if revErr != nil {
			partialErrs = append(partialErrs, fmt.Errorf("revision: %w", revErr))
			continue
		}
		interaction.Revisions = append(interaction.Revisions, revision)
	}
	err = ma.interactions.InsertInteraction(ctx, tx, interaction)
	if err != nil {
		return RestoreItemFailure(fmt.Errorf("failed to insert interaction: %w", err))
	}
	if len(partialErrs) > 0 {
		return RestoreItemPartial(partialErrs...)
	}
	return RestoreItemSuccess()
}

func (ma *messageArchiver) interactionFromItem(item *frames.ChatItem, thread *types.Thread) *types.Interaction {
	direction := types.DirectionIncoming
	if ma.outgoing {
		direction = types.DirectionOutgoing
	}
	interaction := &types.Interaction{
		ID:           types.NewInteractionID(),
		ThreadID:     thread.ID,
		Author:       item.AuthorID,
		Timestamp:    item.DateSent(),
		Direction:    direction,
		SealedSender: item.SealedSender,
		SMS:          item.SMS,
	}
	if item.ExpireStartMS != nil {
		interaction.ExpireStart = time.UnixMilli(*item.ExpireStartMS)
	}
	if item.ExpiresInMS != nil {
		interaction.ExpiresIn = time.Duration(*item.ExpiresInMS) * time.Millisecond
	}
	return interaction
}

// isMessagePayload reports whether the record payload belongs to the message
// variants rather than the chat update variant.
func isMessagePayload(item *frames.ChatItem) bool {
	switch item.Payload.(type) {
	case *frames.StandardMessage, *frames.ContactMessage, *frames.VoiceMessage, *frames.StickerMessage, *frames.RemoteDeleted:
		return true
	default:
		return false
	}
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"fmt"
	"time"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/types"
)

// ContentArchiver converts the payload of a message interaction to and from
// its backup representation. It is shared by the message archiver variants;
// the orchestrator never calls it directly.
type ContentArchiver struct {
	reactions *ReactionArchiver
}

// NewContentArchiver creates a ContentArchiver with its reaction archiver.
func NewContentArchiver() *ContentArchiver {
	return &ContentArchiver{reactions: &ReactionArchiver{}}
}

// ArchivePayload converts an interaction's payload. Reaction-level problems
// come back in partialErrs with the payload still usable; a non-nil err means
// the payload itself could not be converted.
func (ca *ContentArchiver) ArchivePayload(interaction *types.Interaction) (payload frames.Payload, partialErrs []error, err error) {
	switch interaction.Kind {
	case types.KindText:
		reactions, reactionErrs := ca.reactions.Archive(interaction.Reactions)
		return &frames.StandardMessage{Text: interaction.Body, Reactions: reactions}, reactionErrs, nil
	case types.KindContactShare:
		if len(interaction.ContactName) == 0 {
			return nil, nil, ErrEmptyContactShare
		}
		return &frames.ContactMessage{Name: interaction.ContactName}, nil, nil
	case types.KindVoiceNote:
		if interaction.VoiceNoteDuration <= 0 {
			return nil, nil, ErrEmptyVoiceNote
		}
		return &frames.VoiceMessage{DurationMS: interaction.VoiceNoteDuration.Milliseconds()}, nil, nil
	case types.KindSticker:
		if len(interaction.StickerEmoji) == 0 {
			return nil, nil, ErrEmptySticker
		}
		return &frames.StickerMessage{Emoji: interaction.StickerEmoji, PackID: interaction.StickerPackID}, nil, nil
	case types.KindRemoteDelete:
		return &frames.RemoteDeleted{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownMessageKind, interaction.Kind)
	}
}

// RestorePayload fills the interaction's payload fields from a backup record.
// Mirror of ArchivePayload: partialErrs are reaction-level, err means the
// payload could not be restored at all.
func (ca *ContentArchiver) RestorePayload(item *frames.ChatItem, target *types.Interaction) (partialErrs []error, err error) {
	switch payload := item.Payload.(type) {
	case *frames.StandardMessage:
		target.Kind = types.KindText
		target.Body = payload.Text
		target.Reactions, partialErrs = ca.reactions.Restore(payload.Reactions)
	case *frames.ContactMessage:
		target.Kind = types.KindContactShare
		target.ContactName = payload.Name
	case *frames.VoiceMessage:
		target.Kind = types.KindVoiceNote
		target.VoiceNoteDuration = time.Duration(payload.DurationMS) * time.Millisecond
	case *frames.StickerMessage:
		target.Kind = types.KindSticker
		target.StickerEmoji = payload.Emoji
		target.StickerPackID = payload.PackID
	case *frames.RemoteDeleted:
		target.Kind = types.KindRemoteDelete
	case nil:
		return nil, ErrNoPayload
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageKind, payload)
	}
	return partialErrs, nil
}

// ReactionArchiver converts the reaction records attached to a message.
type ReactionArchiver struct{}

// Archive converts attached reactions. Malformed reactions are dropped with
// an error instead of poisoning the whole message.
func (ra *ReactionArchiver) Archive(reactions []types.Reaction) ([]frames.ReactionRecord, []error) {
	var errs []error
	records := make([]frames.ReactionRecord, 0, len(reactions))
	for _, reaction := range reactions {
		if len(reaction.Emoji) == 0 {
			errs = append(errs, fmt.Errorf("%w: author %d", ErrEmptyReaction, reaction.Author))
			continue
		}
		records = append(records, frames.ReactionRecord{
			Emoji:     reaction.Emoji,
			AuthorID:  reaction.Author,
			SentAtMS:  reaction.SentAt.UnixMilli(),
			SortOrder: reaction.SortOrder,
		})
	}
	return records, errs
}

// Restore converts backup reaction records into reactions, dropping malformed
// entries with an error.
func (ra *ReactionArchiver) Restore(records []frames.ReactionRecord) ([]types.Reaction, []error) {
	var errs []error
	reactions := make([]types.Reaction, 0, len(records))
	for _, record := range records {
		if len(record.Emoji) == 0 {
			errs = append(errs, fmt.Errorf("%w: author %d", ErrEmptyReaction, record.AuthorID))
			continue
		}
		reactions = append(reactions, types.Reaction{
			Emoji:     record.Emoji,
			Author:    record.AuthorID,
			SentAt:    time.UnixMilli(record.SentAtMS),
			SortOrder: record.SortOrder,
		})
	}
	return reactions, errs
}

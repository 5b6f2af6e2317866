// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package chatbackup converts local conversation history into a versioned
// frame-based backup stream and reconstructs it on restore.
package chatbackup

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/store"
	"github.com/lyc59621/chatbackup/types"
)

// MinExpireTimer is the retention horizon: a disappearing message whose timer
// would elapse less than this long after the backup is created is not worth
// writing, since it would be gone before the backup is useful.
const MinExpireTimer = 24 * time.Hour

// Config contains the collaborators and options for a ChatItemArchiver.
type Config struct {
	Interactions store.InteractionStore
	Threads      store.ThreadStore

	// Variants overrides the archiver variant list. Order is dispatch
	// priority. Defaults to DefaultVariants.
	Variants []InteractionArchiver

	// Now is the date provider used for the retention policy. Defaults to
	// time.Now.
	Now func() time.Time

	// StrictVariantCoverage records interactions matched by no variant as
	// unsupported-item errors instead of silently counting them as success.
	// Useful as a test-time assertion that the variant set covers everything.
	StrictVariantCoverage bool

	Log zerolog.Logger
}

// ChatItemArchiver orchestrates converting interactions to backup frames and
// back. It is single-threaded: one archive pass or one record restore at a
// time, always inside a transaction owned by the caller.
type ChatItemArchiver struct {
	interactions store.InteractionStore
	threads      store.ThreadStore
	variants     []InteractionArchiver
	now          func() time.Time
	strict       bool
	log          zerolog.Logger
}

// NewChatItemArchiver creates a ChatItemArchiver from the given config.
func NewChatItemArchiver(cfg Config) *ChatItemArchiver {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Variants == nil {
		cfg.Variants = DefaultVariants(cfg.Interactions)
	}
	return &ChatItemArchiver{
		interactions: cfg.Interactions,
		threads:      cfg.Threads,
		variants:     cfg.Variants,
		now:          cfg.Now,
		strict:       cfg.StrictVariantCoverage,
		log:          cfg.Log,
	}
}

// ArchiveInteractions enumerates every interaction in storage and writes one
// frame per archivable item to the stream. Per-item problems are recorded and
// the pass continues; only unrecoverable faults stop it. The entire pass must
// run inside the single read transaction passed in by the caller.
//
// Previously written frames are not unwritten on complete failure; discarding
// a partially written stream is the caller's call.
func (arc *ChatItemArchiver) ArchiveInteractions(ctx context.Context, tx pgx.Tx, stream frames.Stream, mapping *MappingContext) *ArchiveMultiFrameResult {
	minExpireTime := arc.now().Add(MinExpireTimer)
	result := &ArchiveMultiFrameResult{}

	enumErr := arc.interactions.EnumerateAll(ctx, tx, func(interaction *types.Interaction) (stop bool) {
		fatal := arc.archiveOne(ctx, interaction, stream, mapping, minExpireTime, result)
		if fatal != nil {
			result.FatalError = fatal
			return true
		}
		return false
	})
	if enumErr != nil {
		// The item stream itself can't be trusted, so nothing partial is
		// worth reporting.
		return &ArchiveMultiFrameResult{FatalError: enumErr}
	}
	if result.FatalError != nil {
		return &ArchiveMultiFrameResult{FatalError: result.FatalError}
	}
	arc.log.Info().
		Int("frames_written", result.FramesWritten).
		Int("skipped", result.Skipped).
		Int("partial_errors", len(result.PartialErrors)).
		Msg("Finished archiving interactions")
	return result
}

// archiveOne handles a single interaction and folds its outcome into the
// running result. The returned error is fatal and stops the pass.
func (arc *ChatItemArchiver) archiveOne(ctx context.Context, interaction *types.Interaction, stream frames.Stream, mapping *MappingContext, minExpireTime time.Time, result *ArchiveMultiFrameResult) error {
	itemID := interaction.ID.String()

	chatID, ok := mapping.ChatIDForThread(interaction.ThreadID)
	if !ok {
		arc.log.Warn().
			Str("interaction_id", itemID).
			Str("thread_id", interaction.ThreadID.String()).
			Msg("Interaction references a thread missing from the session context")
		result.PartialErrors = append(result.PartialErrors, newFrameError(itemID, FrameErrorReferencedThreadMissing, ErrThreadNotInContext))
		return nil
	}

	variant := arc.selectArchiver(interaction)
	if variant == nil {
		if arc.strict {
			result.PartialErrors = append(result.PartialErrors, newFrameError(itemID, FrameErrorUnsupportedItem, ErrUnsupportedByVariant))
			return nil
		}
		arc.log.Debug().
			Str("interaction_id", itemID).
			Stringer("kind", interaction.Kind).
			Msg("No archiver variant claims interaction, skipping")
		result.Skipped++
		return nil
	}

	itemRes := variant.Archive(ctx, interaction, mapping)
	switch itemRes.outcome {
	case archiveItemPastRevision, archiveItemNotYetImplemented:
		result.Skipped++
		return nil
	case archiveItemMessageFailure:
		for _, err := range itemRes.Errors {
			result.PartialErrors = append(result.PartialErrors, newFrameError(itemID, FrameErrorMessageFailure, err))
		}
		return nil
	case archiveItemCompleteFailure:
		arc.log.Error().Err(itemRes.Fatal).
			Str("interaction_id", itemID).
			Msg("Variant reported unrecoverable fault, aborting archive pass")
		return itemRes.Fatal
	case archiveItemPartialFailure:
		for _, err := range itemRes.Errors {
			result.PartialErrors = append(result.PartialErrors, newFrameError(itemID, FrameErrorMessageFailure, err))
		}
	case archiveItemSuccess:
	}

	details := itemRes.Details
	if details.HasExpiration() && details.ExpiresAt().Before(minExpireTime) {
		arc.log.Debug().
			Str("interaction_id", itemID).
			Time("expires_at", details.ExpiresAt()).
			Msg("Skipping interaction that would expire before the backup is useful")
		result.Skipped++
		return nil
	}

	err := stream.WriteFrame(buildChatItem(chatID, details))
	if err != nil {
		result.PartialErrors = append(result.PartialErrors, newFrameError(itemID, FrameErrorWriteFailed, err))
		return nil
	}
	result.FramesWritten++
	return nil
}

// buildChatItem assembles the immutable backup record from archive details.
// The record is complete before it is handed to the stream; no partially
// built state ever crosses that boundary.
func buildChatItem(chatID types.ChatID, details *ArchiveDetails) *frames.ChatItem {
	item := &frames.ChatItem{
		ChatID:       chatID,
		AuthorID:     details.Author,
		DateSentMS:   details.DateSent.UnixMilli(),
		Outgoing:     details.Outgoing,
		SealedSender: details.SealedSender,
		SMS:          details.SMS,
		Revisions:    details.Revisions,
		Payload:      details.Payload,
	}
	if details.HasExpiration() {
		item.ExpireStartMS = ptr.Ptr(details.ExpireStart.UnixMilli())
		item.ExpiresInMS = ptr.Ptr(details.ExpiresIn.Milliseconds())
	}
	return item
}

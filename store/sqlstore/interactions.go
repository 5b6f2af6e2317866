// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lyc59621/chatbackup/types"
)

const (
	interactionColumns = `id, thread_id, author_id, ts, direction, kind, body, contact_name,
		voice_duration_ms, sticker_emoji, sticker_pack_id, update_kind,
		sealed_sender, sms, expire_start_ms, expires_in_ms, past_revision_of`

	getAllInteractionsQuery = `SELECT ` + interactionColumns + ` FROM chatbackup_interactions ORDER BY ts, id`
	getRevisionsQuery       = `SELECT ` + interactionColumns + ` FROM chatbackup_interactions WHERE past_revision_of IS NOT NULL ORDER BY ts, id`
	getAllReactionsQuery    = `SELECT interaction_id, author_id, emoji, sent_at_ms, sort_order FROM chatbackup_reactions ORDER BY interaction_id, sort_order`

	insertInteractionQuery = `
		INSERT INTO chatbackup_interactions (` + interactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	insertReactionQuery = `
		INSERT INTO chatbackup_reactions (interaction_id, author_id, emoji, sent_at_ms, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`
)

// EnumerateAll streams every interaction row in (ts, id) order with reactions
// and edit revisions attached. Past-revision rows are enumerated like any
// other row; deciding what to do with them is the archiver's job.
func (c *Container) EnumerateAll(ctx context.Context, tx pgx.Tx, fn func(interaction *types.Interaction) (stop bool)) error {
	reactions, err := c.getAllReactions(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to load reactions: %w", err)
	}
	revisions, err := c.getRevisions(ctx, tx, reactions)
	if err != nil {
		return fmt.Errorf("failed to load revisions: %w", err)
	}

	rows, err := tx.Query(ctx, getAllInteractionsQuery)
	if err != nil {
		return fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		interaction, err := scanInteraction(rows)
		if err != nil {
			return fmt.Errorf("failed to scan interaction: %w", err)
		}
		interaction.Reactions = reactions[interaction.ID]
		if !interaction.IsPastRevision() {
			interaction.Revisions = revisions[interaction.ID]
		}
		if fn(interaction) {
			break
		}
	}
	rows.Close()
	return rows.Err()
}

func (c *Container) getAllReactions(ctx context.Context, tx pgx.Tx) (map[types.InteractionID][]types.Reaction, error) {
	rows, err := tx.Query(ctx, getAllReactionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reactions := make(map[types.InteractionID][]types.Reaction)
	for rows.Next() {
		var interactionID string
		var authorID, sentAtMS int64
		var sortOrder uint64
		var emoji string
		err = rows.Scan(&interactionID, &authorID, &emoji, &sentAtMS, &sortOrder)
		if err != nil {
			return nil, err
		}
		id := types.InteractionID(interactionID)
		reactions[id] = append(reactions[id], types.Reaction{
			Emoji:     emoji,
			Author:    types.RecipientID(authorID),
			SentAt:    time.UnixMilli(sentAtMS),
			SortOrder: sortOrder,
		})
	}
	return reactions, rows.Err()
}

func (c *Container) getRevisions(ctx context.Context, tx pgx.Tx, reactions map[types.InteractionID][]types.Reaction) (map[types.InteractionID][]*types.Interaction, error) {
	rows, err := tx.Query(ctx, getRevisionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	revisions := make(map[types.InteractionID][]*types.Interaction)
	for rows.Next() {
		revision, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		revision.Reactions = reactions[revision.ID]
		revisions[revision.PastRevisionOf] = append(revisions[revision.PastRevisionOf], revision)
	}
	return revisions, rows.Err()
}

func scanInteraction(rows pgx.Rows) (*types.Interaction, error) {
	var id, threadID, body, contactName, stickerEmoji, stickerPackID string
	var authorID, ts, voiceDurationMS int64
	var direction, kind, updateKind int16
	var sealedSender, sms bool
	var expireStartMS, expiresInMS *int64
	var pastRevisionOf *string
	err := rows.Scan(
		&id, &threadID, &authorID, &ts, &direction, &kind, &body, &contactName,
		&voiceDurationMS, &stickerEmoji, &stickerPackID, &updateKind,
		&sealedSender, &sms, &expireStartMS, &expiresInMS, &pastRevisionOf,
	)
	if err != nil {
		return nil, err
	}
	interaction := &types.Interaction{
		ID:                types.InteractionID(id),
		ThreadID:          types.ThreadID(threadID),
		Author:            types.RecipientID(authorID),
		Timestamp:         time.UnixMilli(ts),
		Direction:         types.Direction(direction),
		Kind:              types.MessageKind(kind),
		Body:              body,
		ContactName:       contactName,
		VoiceNoteDuration: time.Duration(voiceDurationMS) * time.Millisecond,
		StickerEmoji:      stickerEmoji,
		StickerPackID:     stickerPackID,
		UpdateKind:        types.ChatUpdateKind(updateKind),
		SealedSender:      sealedSender,
		SMS:               sms,
	}
	if expireStartMS != nil {
		interaction.ExpireStart = time.UnixMilli(*expireStartMS)
	}
	if expiresInMS != nil {
		interaction.ExpiresIn = time.Duration(*expiresInMS) * time.Millisecond
	}
	if pastRevisionOf != nil {
		interaction.PastRevisionOf = types.InteractionID(*pastRevisionOf)
	}
	return interaction, nil
}

// InsertInteraction writes one interaction row together with its attached
// reactions and edit revisions.
func (c *Container) InsertInteraction(ctx context.Context, tx pgx.Tx, interaction *types.Interaction) error {
	err := c.insertInteractionRow(ctx, tx, interaction, "")
	if err != nil {
		return err
	}
	for _, revision := range interaction.Revisions {
		err = c.insertInteractionRow(ctx, tx, revision, interaction.ID.String())
		if err != nil {
			return fmt.Errorf("failed to insert revision: %w", err)
		}
		err = c.insertReactions(ctx, tx, revision)
		if err != nil {
			return err
		}
	}
	return c.insertReactions(ctx, tx, interaction)
}

func (c *Container) insertReactions(ctx context.Context, tx pgx.Tx, interaction *types.Interaction) error {
	for _, reaction := range interaction.Reactions {
		_, err := tx.Exec(ctx, insertReactionQuery,
			interaction.ID.String(), int64(reaction.Author), reaction.Emoji,
			reaction.SentAt.UnixMilli(), reaction.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reaction: %w", err)
		}
	}
	return nil
}

func (c *Container) insertInteractionRow(ctx context.Context, tx pgx.Tx, interaction *types.Interaction, pastRevisionOf string) error {
	var expireStartMS, expiresInMS *int64
	if interaction.HasExpiration() {
		start := interaction.ExpireStart.UnixMilli()
		dur := interaction.ExpiresIn.Milliseconds()
		expireStartMS = &start
		expiresInMS = &dur
	}
	var pastRevision *string
	if len(pastRevisionOf) > 0 {
		pastRevision = &pastRevisionOf
	} else if !interaction.PastRevisionOf.IsEmpty() {
		val := interaction.PastRevisionOf.String()
		pastRevision = &val
	}
	_, err := tx.Exec(ctx, insertInteractionQuery,
		interaction.ID.String(), interaction.ThreadID.String(), int64(interaction.Author),
		interaction.Timestamp.UnixMilli(), int16(interaction.Direction), int16(interaction.Kind),
		interaction.Body, interaction.ContactName, interaction.VoiceNoteDuration.Milliseconds(),
		interaction.StickerEmoji, interaction.StickerPackID, int16(interaction.UpdateKind),
		interaction.SealedSender, interaction.SMS, expireStartMS, expiresInMS, pastRevision,
	)
	return err
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lyc59621/chatbackup/frames"
)

// RestoreChatItem reconstructs one interaction from a backup record. The
// record's chat ID is resolved to a local thread through the session context,
// then the matching variant rebuilds the interaction inside the caller-owned
// write transaction.
//
// Every failure is scoped to this one record; there is no complete-failure
// concept here. The caller decides whether the overall import keeps going.
func (arc *ChatItemArchiver) RestoreChatItem(ctx context.Context, tx pgx.Tx, item *frames.ChatItem, mapping *MappingContext) *RestoreFrameResult {
	itemID := restoreItemTag(item)

	variant := arc.selectRestorer(item)
	if variant == nil {
		// Same policy as the archive side: an unclaimed record is a known
		// category gap, not an error.
		arc.log.Debug().Str("item", itemID).Msg("No archiver variant claims chat item, skipping")
		return restoreSuccess()
	}

	threadID, ok := mapping.ThreadIDForChat(item.ChatID)
	if !ok {
		return restoreFailure(newFrameError(itemID, FrameErrorIdentifierNotFound, ErrChatNotInContext))
	}

	thread, err := arc.threads.Fetch(ctx, tx, threadID)
	if err != nil {
		return restoreFailure(newFrameError(itemID, FrameErrorReferencedObjectNotFound, err))
	} else if thread == nil {
		return restoreFailure(newFrameError(itemID, FrameErrorReferencedObjectNotFound, ErrThreadRowNotFound))
	}

	itemRes := variant.Restore(ctx, tx, item, thread, mapping)
	switch itemRes.outcome {
	case restoreItemSuccess:
		return restoreSuccess()
	case restoreItemPartial:
		// The variant did restore something, but the partially restored
		// detail is dropped at this boundary and the record is reported as
		// failed. See RestoreStatePartialRestore for the caller-facing state.
		fallthrough
	default:
		frameErrs := make([]*FrameError, len(itemRes.Errors))
		for i, resErr := range itemRes.Errors {
			frameErrs[i] = newFrameError(itemID, FrameErrorRestoreFailure, resErr)
		}
		return restoreFailure(frameErrs...)
	}
}

// restoreItemTag derives a stable identifier for error reporting from a
// backup record, which has no unique ID of its own.
func restoreItemTag(item *frames.ChatItem) string {
	return fmt.Sprintf("chat=%s sent=%d", item.ChatID, item.DateSentMS)
}

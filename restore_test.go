// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/util/ptr"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/types"
)

func standardItem(chat types.ChatID, text string) *frames.ChatItem {
	return &frames.ChatItem{
		ChatID:     chat,
		AuthorID:   42,
		DateSentMS: testNow.Add(-time.Hour).UnixMilli(),
		Payload:    &frames.StandardMessage{Text: text},
	}
}

func newRestoreFixture(t *testing.T) (*ChatItemArchiver, *fakeInteractionStore, *fakeThreadStore, *MappingContext, types.ChatID) {
	t.Helper()
	thread := &types.Thread{ID: types.NewThreadID(), Recipient: 42, CreatedAt: testNow}
	threads := &fakeThreadStore{threads: map[types.ThreadID]*types.Thread{thread.ID: thread}}
	interactions := &fakeInteractionStore{}
	mapping := NewMappingContext()
	chatID := mapping.AssignChatID(thread.ID)
	return newTestArchiver(interactions, threads), interactions, threads, mapping, chatID
}

func TestRestoreChatItem_Success(t *testing.T) {
	arc, interactions, _, mapping, chatID := newRestoreFixture(t)
	item := standardItem(chatID, "welcome back")
	item.ExpireStartMS = ptr.Ptr(testNow.UnixMilli())
	item.ExpiresInMS = ptr.Ptr((48 * time.Hour).Milliseconds())

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.True(t, result.IsSuccess())
	require.Len(t, interactions.inserted, 1)
	restored := interactions.inserted[0]
	assert.Equal(t, types.KindText, restored.Kind)
	assert.Equal(t, "welcome back", restored.Body)
	assert.Equal(t, types.DirectionIncoming, restored.Direction)
	assert.Equal(t, types.RecipientID(42), restored.Author)
	assert.Equal(t, 48*time.Hour, restored.ExpiresIn)
}

func TestRestoreChatItem_OutgoingDirection(t *testing.T) {
	arc, interactions, _, mapping, chatID := newRestoreFixture(t)
	item := standardItem(chatID, "sent by me")
	item.Outgoing = true

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.True(t, result.IsSuccess())
	require.Len(t, interactions.inserted, 1)
	assert.Equal(t, types.DirectionOutgoing, interactions.inserted[0].Direction)
}

func TestRestoreChatItem_IdentifierNotFound(t *testing.T) {
	arc, interactions, threads, mapping, chatID := newRestoreFixture(t)
	item := standardItem(chatID+100, "orphaned")

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.Equal(t, RestoreStateFailure, result.State)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, FrameErrorIdentifierNotFound, result.Errors[0].Kind)
	assert.ErrorIs(t, result.Errors[0].Err, ErrChatNotInContext)
	// The thread lookup must not even be attempted.
	assert.Equal(t, 0, threads.fetchCalls)
	assert.Empty(t, interactions.inserted)
}

func TestRestoreChatItem_ThreadRowMissing(t *testing.T) {
	arc, interactions, threads, mapping, chatID := newRestoreFixture(t)
	// The mapping knows the chat, but the thread row is gone from storage.
	for id := range threads.threads {
		delete(threads.threads, id)
	}
	item := standardItem(chatID, "dangling")

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.Equal(t, RestoreStateFailure, result.State)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, FrameErrorReferencedObjectNotFound, result.Errors[0].Kind)
	assert.ErrorIs(t, result.Errors[0].Err, ErrThreadRowNotFound)
	assert.Equal(t, 1, threads.fetchCalls)
	assert.Empty(t, interactions.inserted)
}

func TestRestoreChatItem_UnclaimedRecordIsSuccess(t *testing.T) {
	arc, interactions, threads, mapping, chatID := newRestoreFixture(t)
	item := &frames.ChatItem{ChatID: chatID, AuthorID: 42, DateSentMS: testNow.UnixMilli()}

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.True(t, result.IsSuccess())
	assert.Empty(t, interactions.inserted)
	assert.Equal(t, 0, threads.fetchCalls)
}

func TestRestoreChatItem_PartialRestoreDegradesToFailure(t *testing.T) {
	arc, interactions, _, mapping, chatID := newRestoreFixture(t)
	item := standardItem(chatID, "partly reacted")
	item.Payload = &frames.StandardMessage{
		Text: "partly reacted",
		Reactions: []frames.ReactionRecord{
			{Emoji: "🎉", AuthorID: 5, SentAtMS: testNow.UnixMilli()},
			{Emoji: "", AuthorID: 6, SentAtMS: testNow.UnixMilli()},
		},
	}

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	// The variant reported a partial restore; at this boundary that is
	// surfaced as a failure even though the record was written.
	require.Equal(t, RestoreStateFailure, result.State)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, FrameErrorRestoreFailure, result.Errors[0].Kind)
	assert.ErrorIs(t, result.Errors[0].Err, ErrEmptyReaction)
	require.Len(t, interactions.inserted, 1)
	assert.Len(t, interactions.inserted[0].Reactions, 1)
}

func TestRestoreChatItem_ChatUpdate(t *testing.T) {
	arc, interactions, _, mapping, chatID := newRestoreFixture(t)
	item := &frames.ChatItem{
		ChatID:     chatID,
		AuthorID:   42,
		DateSentMS: testNow.UnixMilli(),
		Payload:    &frames.ChatUpdate{Kind: types.ChatUpdateTimerChange, Body: "timer set to 1w"},
	}

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.True(t, result.IsSuccess())
	require.Len(t, interactions.inserted, 1)
	restored := interactions.inserted[0]
	assert.Equal(t, types.DirectionChatUpdate, restored.Direction)
	assert.Equal(t, types.ChatUpdateTimerChange, restored.UpdateKind)
	assert.Equal(t, "timer set to 1w", restored.Body)
}

func TestRestoreChatItem_RevisionsRebuilt(t *testing.T) {
	arc, interactions, _, mapping, chatID := newRestoreFixture(t)
	item := standardItem(chatID, "final wording")
	item.Revisions = []*frames.ChatItem{
		{AuthorID: 42, DateSentMS: testNow.Add(-2 * time.Hour).UnixMilli(), Payload: &frames.StandardMessage{Text: "first draft"}},
	}

	result := arc.RestoreChatItem(context.Background(), nil, item, mapping)

	require.True(t, result.IsSuccess())
	require.Len(t, interactions.inserted, 1)
	restored := interactions.inserted[0]
	require.Len(t, restored.Revisions, 1)
	assert.Equal(t, "first draft", restored.Revisions[0].Body)
	assert.Equal(t, restored.ID, restored.Revisions[0].PastRevisionOf)
}

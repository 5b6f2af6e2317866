// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/types"
)

func TestDispatch_FirstMatchWins(t *testing.T) {
	thread := types.NewThreadID()
	interaction := textInteraction(thread, "claimed twice")
	var claimedBy string

	claimAll := func(name string) *stubVariant {
		return &stubVariant{
			canArchive: func(*types.Interaction) bool { return true },
			archive: func(*types.Interaction) ArchiveItemResult {
				claimedBy = name
				return ArchivePastRevision()
			},
		}
	}

	interactions := &fakeInteractionStore{interactions: []*types.Interaction{interaction}}
	mapping := NewMappingContext()
	mapping.AssignChatID(thread)

	arc := newTestArchiver(interactions, &fakeThreadStore{}, func(cfg *Config) {
		cfg.Variants = []InteractionArchiver{claimAll("first"), claimAll("second")}
	})
	result := arc.ArchiveInteractions(context.Background(), nil, &recordingStream{}, mapping)

	require.True(t, result.IsSuccess())
	assert.Equal(t, "first", claimedBy)
}

func TestDefaultVariants_NoOverlap(t *testing.T) {
	variants := DefaultVariants(&fakeInteractionStore{})
	thread := types.NewThreadID()

	samples := map[string]*types.Interaction{
		"incoming text": textInteraction(thread, "hi"),
		"outgoing text": {ThreadID: thread, Direction: types.DirectionOutgoing, Kind: types.KindText},
		"chat update":   {ThreadID: thread, Direction: types.DirectionChatUpdate, Kind: types.KindChatUpdate},
	}
	for name, interaction := range samples {
		matches := 0
		for _, variant := range variants {
			if variant.CanArchive(interaction) {
				matches++
			}
		}
		assert.Equalf(t, 1, matches, "%s should be claimed by exactly one variant", name)
	}

	records := map[string]*frames.ChatItem{
		"incoming standard": {Payload: &frames.StandardMessage{Text: "hi"}},
		"outgoing standard": {Outgoing: true, Payload: &frames.StandardMessage{Text: "hi"}},
		"remote deleted":    {Payload: &frames.RemoteDeleted{}},
		"chat update":       {Payload: &frames.ChatUpdate{}},
	}
	for name, item := range records {
		matches := 0
		for _, variant := range variants {
			if variant.CanRestore(item) {
				matches++
			}
		}
		assert.Equalf(t, 1, matches, "%s should be claimed by exactly one variant", name)
	}
}

func TestDefaultVariants_PastRevisionSkipped(t *testing.T) {
	thread := types.NewThreadID()
	superseded := textInteraction(thread, "old wording")
	superseded.PastRevisionOf = types.NewInteractionID()

	interactions := &fakeInteractionStore{interactions: []*types.Interaction{superseded}}
	mapping := NewMappingContext()
	mapping.AssignChatID(thread)
	stream := &recordingStream{}

	arc := newTestArchiver(interactions, &fakeThreadStore{})
	result := arc.ArchiveInteractions(context.Background(), nil, stream, mapping)

	require.True(t, result.IsSuccess())
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, stream.frames)
}

func TestDefaultVariants_ViewOnceNotYetImplemented(t *testing.T) {
	thread := types.NewThreadID()
	viewOnce := textInteraction(thread, "")
	viewOnce.Kind = types.KindViewOnce

	interactions := &fakeInteractionStore{interactions: []*types.Interaction{viewOnce}}
	mapping := NewMappingContext()
	mapping.AssignChatID(thread)
	stream := &recordingStream{}

	arc := newTestArchiver(interactions, &fakeThreadStore{})
	result := arc.ArchiveInteractions(context.Background(), nil, stream, mapping)

	require.True(t, result.IsSuccess())
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, stream.frames)
}

func TestDefaultVariants_EditHistoryCarried(t *testing.T) {
	thread := types.NewThreadID()
	current := textInteraction(thread, "final wording")
	current.Revisions = []*types.Interaction{
		textInteraction(thread, "first draft"),
	}

	interactions := &fakeInteractionStore{interactions: []*types.Interaction{current}}
	mapping := NewMappingContext()
	mapping.AssignChatID(thread)
	stream := &recordingStream{}

	arc := newTestArchiver(interactions, &fakeThreadStore{})
	result := arc.ArchiveInteractions(context.Background(), nil, stream, mapping)

	require.True(t, result.IsSuccess())
	require.Len(t, stream.frames, 1)
	require.Len(t, stream.frames[0].Revisions, 1)
	assert.Equal(t, "first draft", stream.frames[0].Revisions[0].Payload.(*frames.StandardMessage).Text)
}

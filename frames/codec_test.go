// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/util/ptr"

	"github.com/lyc59621/chatbackup/types"
)

func TestChatItem_RoundTrip(t *testing.T) {
	item := &ChatItem{
		ChatID:        3,
		AuthorID:      1234,
		DateSentMS:    1722500000000,
		Outgoing:      true,
		SealedSender:  true,
		SMS:           false,
		ExpireStartMS: ptr.Ptr(int64(1722500000000)),
		ExpiresInMS:   ptr.Ptr(int64(604800000)),
		Revisions: []*ChatItem{{
			AuthorID:   1234,
			DateSentMS: 1722400000000,
			Outgoing:   true,
			Payload:    &StandardMessage{Text: "first draft"},
		}},
		Payload: &StandardMessage{
			Text: "final wording",
			Reactions: []ReactionRecord{
				{Emoji: "🔥", AuthorID: 99, SentAtMS: 1722510000000, SortOrder: 1},
			},
		},
	}

	decoded, err := Unmarshal(item.Marshal())
	require.NoError(t, err)
	assert.Equal(t, item, decoded)
}

func TestChatItem_PayloadVariants(t *testing.T) {
	payloads := []Payload{
		&ContactMessage{Name: "Ada Lovelace"},
		&VoiceMessage{DurationMS: 4200},
		&StickerMessage{Emoji: "🦊", PackID: "forest-friends"},
		&RemoteDeleted{},
		&ChatUpdate{Kind: types.ChatUpdateGroupChange, Body: "title changed"},
	}
	for _, payload := range payloads {
		item := &ChatItem{ChatID: 1, AuthorID: 2, DateSentMS: 1000, Payload: payload}
		decoded, err := Unmarshal(item.Marshal())
		require.NoError(t, err)
		assert.Equal(t, payload, decoded.Payload)
	}
}

func TestChatItem_EmptyAndUnknownFields(t *testing.T) {
	decoded, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded.Payload)

	// A frame from a newer format version with an extra varint field still
	// decodes; the unknown field is dropped.
	raw := (&ChatItem{ChatID: 5, Payload: &RemoteDeleted{}}).Marshal()
	raw = append(raw, 0xc8, 0x01, 0x2a) // field 25, varint 42
	decoded, err = Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, types.ChatID(5), decoded.ChatID)
	assert.Equal(t, &RemoteDeleted{}, decoded.Payload)

	_, err = Unmarshal([]byte{0xff})
	assert.Error(t, err)
}

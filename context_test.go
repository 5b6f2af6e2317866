// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyc59621/chatbackup/types"
)

func TestMappingContext_MintOncePerThread(t *testing.T) {
	mapping := NewMappingContext()
	thread := types.NewThreadID()

	first := mapping.AssignChatID(thread)
	second := mapping.AssignChatID(thread)

	assert.Equal(t, first, second)
	assert.Equal(t, types.ChatID(1), first)
	assert.Equal(t, 1, mapping.Len())

	other := mapping.AssignChatID(types.NewThreadID())
	assert.Equal(t, types.ChatID(2), other)
}

func TestMappingContext_Bidirectional(t *testing.T) {
	threadA := types.NewThreadID()
	threadB := types.NewThreadID()
	mapping := BuildMappingContext([]*types.Thread{{ID: threadA}, {ID: threadB}})

	chatA, ok := mapping.ChatIDForThread(threadA)
	require.True(t, ok)
	back, ok := mapping.ThreadIDForChat(chatA)
	require.True(t, ok)
	assert.Equal(t, threadA, back)

	_, ok = mapping.ChatIDForThread(types.NewThreadID())
	assert.False(t, ok)
	_, ok = mapping.ThreadIDForChat(types.ChatID(99))
	assert.False(t, ok)
}

func TestMappingContext_RegisterConflicts(t *testing.T) {
	mapping := NewMappingContext()
	threadA := types.NewThreadID()
	threadB := types.NewThreadID()

	require.NoError(t, mapping.Register(threadA, 7))
	// Re-registering the identical pair is fine.
	require.NoError(t, mapping.Register(threadA, 7))

	err := mapping.Register(threadB, 7)
	assert.ErrorIs(t, err, ErrChatIDAlreadyMapped)
	err = mapping.Register(threadA, 8)
	assert.ErrorIs(t, err, ErrThreadAlreadyMapped)

	// Minting after registering picks up above the registered IDs.
	assert.Equal(t, types.ChatID(8), mapping.AssignChatID(threadB))
}

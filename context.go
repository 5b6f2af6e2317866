// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"fmt"

	"github.com/lyc59621/chatbackup/types"
)

// MappingContext is the session-scoped bidirectional mapping between local
// thread IDs and backup chat IDs. It is populated once before a backup
// session starts (AssignChatID on export, Register on import) and must be
// treated as read-only for the duration of the session; the archiver only
// ever looks things up in it.
type MappingContext struct {
	chatForThread map[types.ThreadID]types.ChatID
	threadForChat map[types.ChatID]types.ThreadID
	nextChatID    types.ChatID
}

// NewMappingContext creates an empty session context.
func NewMappingContext() *MappingContext {
	return &MappingContext{
		chatForThread: make(map[types.ThreadID]types.ChatID),
		threadForChat: make(map[types.ChatID]types.ThreadID),
		nextChatID:    1,
	}
}

// BuildMappingContext creates a session context for an export, minting a chat
// ID for each given thread.
func BuildMappingContext(threads []*types.Thread) *MappingContext {
	mapping := NewMappingContext()
	for _, thread := range threads {
		mapping.AssignChatID(thread.ID)
	}
	return mapping
}

// AssignChatID mints a chat ID for the given thread, or returns the one
// minted earlier in this session. Chat IDs are sequential starting at 1 and
// only meaningful within the backup file written by this session.
func (mapping *MappingContext) AssignChatID(thread types.ThreadID) types.ChatID {
	if chat, ok := mapping.chatForThread[thread]; ok {
		return chat
	}
	chat := mapping.nextChatID
	mapping.nextChatID++
	mapping.chatForThread[thread] = chat
	mapping.threadForChat[chat] = thread
	return chat
}

// Register records a thread↔chat pair read from an existing backup. Used on
// the import side, where chat IDs come from the file instead of being minted.
func (mapping *MappingContext) Register(thread types.ThreadID, chat types.ChatID) error {
	if existing, ok := mapping.threadForChat[chat]; ok && existing != thread {
		return fmt.Errorf("%w: chat %s -> %s", ErrChatIDAlreadyMapped, chat, existing)
	}
	if existing, ok := mapping.chatForThread[thread]; ok && existing != chat {
		return fmt.Errorf("%w: thread %s -> %s", ErrThreadAlreadyMapped, thread, existing)
	}
	mapping.chatForThread[thread] = chat
	mapping.threadForChat[chat] = thread
	if chat >= mapping.nextChatID {
		mapping.nextChatID = chat + 1
	}
	return nil
}

// ChatIDForThread looks up the backup chat ID of a local thread.
func (mapping *MappingContext) ChatIDForThread(thread types.ThreadID) (types.ChatID, bool) {
	chat, ok := mapping.chatForThread[thread]
	return chat, ok
}

// ThreadIDForChat looks up the local thread of a backup chat ID.
func (mapping *MappingContext) ThreadIDForChat(chat types.ChatID) (types.ThreadID, bool) {
	thread, ok := mapping.threadForChat[chat]
	return thread, ok
}

// Len returns the number of mapped conversations.
func (mapping *MappingContext) Len() int {
	return len(mapping.chatForThread)
}

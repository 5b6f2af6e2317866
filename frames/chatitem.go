// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package frames implements encoding and decoding the frame records that make
// up a chat backup file.
package frames

import (
	"time"

	"github.com/lyc59621/chatbackup/types"
)

// ChatItem is the backup-file representation of a single message or thread
// event. One ChatItem is written as one frame on export and read back as one
// frame on import.
//
// A ChatItem is assembled fully before it is handed to a Stream; it is never
// mutated after that.
type ChatItem struct {
	// ChatID is the backup-session identifier of the conversation this item
	// belongs to. Zero on nested revision entries, which inherit the parent's.
	ChatID   types.ChatID
	AuthorID types.RecipientID
	// DateSentMS is the send timestamp in unix milliseconds.
	DateSentMS int64
	// Outgoing is true for messages sent by the local user.
	Outgoing     bool
	SealedSender bool
	SMS          bool

	// ExpireStartMS and ExpiresInMS describe the disappearing-message timer in
	// unix/duration milliseconds. Both nil when the message does not disappear.
	ExpireStartMS *int64
	ExpiresInMS   *int64

	// Revisions holds prior revisions of an edited message, oldest first.
	Revisions []*ChatItem

	Payload Payload
}

// DateSent returns the send timestamp as a time.Time.
func (item *ChatItem) DateSent() time.Time {
	return time.UnixMilli(item.DateSentMS)
}

// Payload is the tagged payload of a ChatItem. It is a closed set: exactly the
// types in this file implement it.
type Payload interface {
	isPayload()
}

// StandardMessage is a plain message body with its attached reactions.
type StandardMessage struct {
	Text      string
	Reactions []ReactionRecord
}

// ContactMessage is a shared contact card.
type ContactMessage struct {
	Name string
}

// VoiceMessage is a voice note.
type VoiceMessage struct {
	DurationMS int64
}

// StickerMessage is a sticker.
type StickerMessage struct {
	Emoji  string
	PackID string
}

// RemoteDeleted is the tombstone left behind by a remote delete.
type RemoteDeleted struct{}

// ChatUpdate is a non-message thread event.
type ChatUpdate struct {
	Kind types.ChatUpdateKind
	Body string
}

func (*StandardMessage) isPayload() {}
func (*ContactMessage) isPayload()  {}
func (*VoiceMessage) isPayload()    {}
func (*StickerMessage) isPayload()  {}
func (*RemoteDeleted) isPayload()   {}
func (*ChatUpdate) isPayload()      {}

// ReactionRecord is the backup representation of one emoji reaction.
type ReactionRecord struct {
	Emoji     string
	AuthorID  types.RecipientID
	SentAtMS  int64
	SortOrder uint64
}

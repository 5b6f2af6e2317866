// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

import (
	"fmt"
	"time"
)

// Direction tells whether an interaction was received, sent, or is a local
// thread event rather than a message.
type Direction int

const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
	DirectionChatUpdate
)

func (dir Direction) String() string {
	switch dir {
	case DirectionIncoming:
		return "incoming"
	case DirectionOutgoing:
		return "outgoing"
	case DirectionChatUpdate:
		return "chat-update"
	default:
		return fmt.Sprintf("unknown-direction-%d", int(dir))
	}
}

// MessageKind is the payload category of an interaction.
type MessageKind int

const (
	KindText MessageKind = iota
	KindContactShare
	KindVoiceNote
	KindSticker
	KindRemoteDelete
	KindChatUpdate
	// KindViewOnce is view-once media. It can't be carried over into backups
	// yet, so the archivers report it as a skipped category.
	KindViewOnce
)

func (kind MessageKind) String() string {
	switch kind {
	case KindText:
		return "text"
	case KindContactShare:
		return "contact-share"
	case KindVoiceNote:
		return "voice-note"
	case KindSticker:
		return "sticker"
	case KindRemoteDelete:
		return "remote-delete"
	case KindChatUpdate:
		return "chat-update"
	case KindViewOnce:
		return "view-once"
	default:
		return fmt.Sprintf("unknown-kind-%d", int(kind))
	}
}

// ChatUpdateKind is the subcategory of a chat-update interaction.
type ChatUpdateKind int

const (
	ChatUpdateGeneric ChatUpdateKind = iota
	ChatUpdateTimerChange
	ChatUpdateProfileChange
	ChatUpdateGroupChange
)

// Reaction is a single emoji reaction attached to an interaction.
type Reaction struct {
	Emoji     string
	Author    RecipientID
	SentAt    time.Time
	SortOrder uint64
}

// Interaction is one local chat message or thread event. Interactions are
// created and read by the storage layer and are read-only to the archivers.
type Interaction struct {
	ID        InteractionID
	ThreadID  ThreadID
	Author    RecipientID
	Timestamp time.Time
	Direction Direction
	Kind      MessageKind

	Body              string
	ContactName       string
	VoiceNoteDuration time.Duration
	StickerEmoji      string
	StickerPackID     string
	UpdateKind        ChatUpdateKind

	SealedSender bool
	SMS          bool

	// ExpireStart and ExpiresIn describe the disappearing-message timer.
	// Both are zero when the message does not disappear.
	ExpireStart time.Time
	ExpiresIn   time.Duration

	// PastRevisionOf is set on superseded edit-history rows and points at the
	// interaction that replaced this one.
	PastRevisionOf InteractionID
	// Revisions holds the prior revisions of an edited message, oldest first.
	// Only set on the current revision.
	Revisions []*Interaction

	Reactions []Reaction
}

// SourceString returns a log-friendly representation of who sent the
// interaction and where.
func (in *Interaction) SourceString() string {
	return fmt.Sprintf("%d in %s", in.Author, in.ThreadID)
}

// IsPastRevision returns true if this row is a superseded edit-history entry.
func (in *Interaction) IsPastRevision() bool {
	return !in.PastRevisionOf.IsEmpty()
}

// HasExpiration returns true if the interaction has a started
// disappearing-message timer.
func (in *Interaction) HasExpiration() bool {
	return !in.ExpireStart.IsZero() && in.ExpiresIn > 0
}

// ExpiresAt returns the time the interaction's disappearing-message timer
// elapses. Only meaningful when HasExpiration is true.
func (in *Interaction) ExpiresAt() time.Time {
	return in.ExpireStart.Add(in.ExpiresIn)
}

// Thread is one conversation. Threads are owned by the storage layer;
// archivers only read them to resolve cross-references.
type Thread struct {
	ID        ThreadID
	Recipient RecipientID
	Title     string
	CreatedAt time.Time
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"errors"
	"fmt"
)

// Cross-reference resolution errors
var (
	ErrThreadNotInContext = errors.New("thread ID is missing from the session context")
	ErrChatNotInContext   = errors.New("chat ID is missing from the session context")
	ErrThreadRowNotFound  = errors.New("referenced thread row does not exist")
)

// Some errors the content archiver can return
var (
	ErrUnknownMessageKind = errors.New("unknown message kind")
	ErrEmptyContactShare  = errors.New("contact share has no name")
	ErrEmptyVoiceNote     = errors.New("voice note has no duration")
	ErrEmptySticker       = errors.New("sticker has no emoji")
	ErrEmptyReaction      = errors.New("reaction has no emoji")
	ErrNoPayload          = errors.New("chat item has no payload")
)

// Errors related to the session context
var (
	ErrChatIDAlreadyMapped  = errors.New("chat ID is already mapped to a different thread")
	ErrThreadAlreadyMapped  = errors.New("thread ID is already mapped to a different chat")
	ErrUnsupportedByVariant = errors.New("no archiver variant claims this item")
)

// FrameErrorKind classifies per-item errors recorded while archiving or
// restoring frames.
type FrameErrorKind int

const (
	// Archive-side kinds
	FrameErrorReferencedThreadMissing FrameErrorKind = iota
	FrameErrorWriteFailed
	FrameErrorMessageFailure
	FrameErrorUnsupportedItem

	// Restore-side kinds
	FrameErrorIdentifierNotFound
	FrameErrorReferencedObjectNotFound
	FrameErrorRestoreFailure
)

func (kind FrameErrorKind) String() string {
	switch kind {
	case FrameErrorReferencedThreadMissing:
		return "referenced-thread-missing"
	case FrameErrorWriteFailed:
		return "frame-write-failed"
	case FrameErrorMessageFailure:
		return "message-failure"
	case FrameErrorUnsupportedItem:
		return "unsupported-item"
	case FrameErrorIdentifierNotFound:
		return "identifier-not-found"
	case FrameErrorReferencedObjectNotFound:
		return "referenced-object-not-found"
	case FrameErrorRestoreFailure:
		return "restore-failure"
	default:
		return fmt.Sprintf("unknown-frame-error-%d", int(kind))
	}
}

// FrameError is a per-item error recorded against the identifier of the item
// that produced it. FrameErrors are accumulated, not thrown: the batch keeps
// going and the caller gets the full list at the end.
type FrameError struct {
	ItemID string
	Kind   FrameErrorKind
	Err    error
}

func newFrameError(itemID string, kind FrameErrorKind, err error) *FrameError {
	return &FrameError{ItemID: itemID, Kind: kind, Err: err}
}

func (fe *FrameError) Error() string {
	if fe.Err != nil {
		return fmt.Sprintf("%s (item %s): %v", fe.Kind, fe.ItemID, fe.Err)
	}
	return fmt.Sprintf("%s (item %s)", fe.Kind, fe.ItemID)
}

func (fe *FrameError) Unwrap() error {
	return fe.Err
}

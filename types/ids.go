// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package types contains various structs and other types used by chatbackup.
package types

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// ThreadID is the stable local identifier of a conversation thread.
//
// Thread IDs are minted once when the thread row is created and never change
// afterwards, so they are safe to use as cross-reference keys inside a backup
// session. They never appear in the backup file itself; the session context
// maps them to ChatIDs on export and back on import.
type ThreadID string

// EmptyThreadID is the zero value of ThreadID.
const EmptyThreadID ThreadID = ""

// NewThreadID mints a random thread identifier.
func NewThreadID() ThreadID {
	return ThreadID(uuid.NewString())
}

// IsEmpty returns true if the ThreadID has no value.
func (tid ThreadID) IsEmpty() bool {
	return len(tid) == 0
}

func (tid ThreadID) String() string {
	return string(tid)
}

// Value implements driver.Valuer so ThreadIDs can be passed to SQL queries directly.
func (tid ThreadID) Value() (driver.Value, error) {
	return string(tid), nil
}

// Scan implements sql.Scanner so ThreadIDs can be scanned from SQL queries directly.
func (tid *ThreadID) Scan(src interface{}) error {
	switch val := src.(type) {
	case nil:
		*tid = EmptyThreadID
	case string:
		*tid = ThreadID(val)
	case []byte:
		*tid = ThreadID(val)
	default:
		return fmt.Errorf("unsupported type %T scanned into ThreadID", src)
	}
	return nil
}

// ChatID is the backup-file identifier of a conversation.
//
// ChatIDs exist only inside a single backup: they are minted sequentially per
// thread when the session context is built and are meaningless outside of the
// file they were written to.
type ChatID uint64

// IsEmpty returns true if the ChatID has no value. Valid ChatIDs start at 1.
func (cid ChatID) IsEmpty() bool {
	return cid == 0
}

func (cid ChatID) String() string {
	return fmt.Sprintf("%d", uint64(cid))
}

// RecipientID identifies the author of a message or reaction.
type RecipientID uint64

// InteractionID is the unique identifier of a single interaction row.
type InteractionID string

// NewInteractionID mints a random interaction identifier.
func NewInteractionID() InteractionID {
	return InteractionID(uuid.NewString())
}

// IsEmpty returns true if the InteractionID has no value.
func (iid InteractionID) IsEmpty() bool {
	return len(iid) == 0
}

func (iid InteractionID) String() string {
	return string(iid)
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatbackup

import (
	"time"

	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/types"
)

// ArchiveDetails is the normalized, variant-agnostic description of one
// archived message. A variant produces it, the orchestrator consumes it once
// to build the output frame.
type ArchiveDetails struct {
	Author       types.RecipientID
	DateSent     time.Time
	Outgoing     bool
	SealedSender bool
	SMS          bool

	// ExpireStart and ExpiresIn mirror the interaction's disappearing-message
	// timer. Both zero when the message does not disappear.
	ExpireStart time.Time
	ExpiresIn   time.Duration

	Payload   frames.Payload
	Revisions []*frames.ChatItem
}

// HasExpiration returns true if the details carry a started
// disappearing-message timer.
func (details *ArchiveDetails) HasExpiration() bool {
	return !details.ExpireStart.IsZero() && details.ExpiresIn > 0
}

// ExpiresAt returns the time the disappearing-message timer elapses. Only
// meaningful when HasExpiration is true.
func (details *ArchiveDetails) ExpiresAt() time.Time {
	return details.ExpireStart.Add(details.ExpiresIn)
}

type archiveItemOutcome int

const (
	archiveItemSuccess archiveItemOutcome = iota
	archiveItemPastRevision
	archiveItemNotYetImplemented
	archiveItemMessageFailure
	archiveItemPartialFailure
	archiveItemCompleteFailure
)

// ArchiveItemResult is the outcome of a variant archiving one interaction.
// It is a closed tagged value; use the constructor functions to build one.
type ArchiveItemResult struct {
	outcome archiveItemOutcome

	// Details is set on success and partial-failure outcomes.
	Details *ArchiveDetails
	// Errors is set on message-failure and partial-failure outcomes.
	Errors []error
	// Fatal is set on complete-failure outcomes and halts the whole pass.
	Fatal error
}

// ArchiveSuccess reports a fully converted interaction.
func ArchiveSuccess(details *ArchiveDetails) ArchiveItemResult {
	return ArchiveItemResult{outcome: archiveItemSuccess, Details: details}
}

// ArchivePastRevision reports an edit-history row that is already carried by
// its current revision. Counted as success, no frame is written.
func ArchivePastRevision() ArchiveItemResult {
	return ArchiveItemResult{outcome: archiveItemPastRevision}
}

// ArchiveNotYetImplemented reports a recognized message category that can't
// be archived yet. Counted as success, no frame is written.
func ArchiveNotYetImplemented() ArchiveItemResult {
	return ArchiveItemResult{outcome: archiveItemNotYetImplemented}
}

// ArchiveMessageFailure reports that the interaction could not be converted.
// The errors are recorded and the pass continues.
func ArchiveMessageFailure(errs ...error) ArchiveItemResult {
	return ArchiveItemResult{outcome: archiveItemMessageFailure, Errors: errs}
}

// ArchivePartialFailure reports a conversion that produced usable details but
// lost some attached data on the way. A frame is still written.
func ArchivePartialFailure(details *ArchiveDetails, errs ...error) ArchiveItemResult {
	return ArchiveItemResult{outcome: archiveItemPartialFailure, Details: details, Errors: errs}
}

// ArchiveCompleteFailure reports an unrecoverable fault. The whole archive
// pass stops immediately.
func ArchiveCompleteFailure(err error) ArchiveItemResult {
	return ArchiveItemResult{outcome: archiveItemCompleteFailure, Fatal: err}
}

type restoreItemOutcome int

const (
	restoreItemSuccess restoreItemOutcome = iota
	restoreItemPartial
	restoreItemFailure
)

// RestoreItemResult is the outcome of a variant restoring one chat item
// record. Closed tagged value; use the constructor functions.
type RestoreItemResult struct {
	outcome restoreItemOutcome
	Errors  []error
}

// RestoreItemSuccess reports a fully restored record.
func RestoreItemSuccess() RestoreItemResult {
	return RestoreItemResult{outcome: restoreItemSuccess}
}

// RestoreItemPartial reports a record restored with some attached data lost.
func RestoreItemPartial(errs ...error) RestoreItemResult {
	return RestoreItemResult{outcome: restoreItemPartial, Errors: errs}
}

// RestoreItemFailure reports a record that could not be restored.
func RestoreItemFailure(errs ...error) RestoreItemResult {
	return RestoreItemResult{outcome: restoreItemFailure, Errors: errs}
}

// ArchiveMultiFrameResult is the aggregate outcome of archiving a batch of
// interactions: success, partial success with a list of per-item errors, or
// complete failure with a single fatal error.
type ArchiveMultiFrameResult struct {
	// PartialErrors lists every per-item error recorded during the pass.
	PartialErrors []*FrameError
	// FatalError is the error that halted the pass, or nil.
	FatalError error

	// FramesWritten counts the frames emitted to the stream.
	FramesWritten int
	// Skipped counts the items deliberately not written: unmatched variants,
	// past revisions, not-yet-implemented categories, and items dropped by
	// the retention policy.
	Skipped int
}

// IsSuccess returns true if every item archived cleanly.
func (res *ArchiveMultiFrameResult) IsSuccess() bool {
	return res.FatalError == nil && len(res.PartialErrors) == 0
}

// IsPartialSuccess returns true if the pass completed but recorded per-item
// errors.
func (res *ArchiveMultiFrameResult) IsPartialSuccess() bool {
	return res.FatalError == nil && len(res.PartialErrors) > 0
}

// IsCompleteFailure returns true if a fatal error halted the pass.
func (res *ArchiveMultiFrameResult) IsCompleteFailure() bool {
	return res.FatalError != nil
}

// RestoreState is the aggregate state of restoring one chat item record.
type RestoreState int

const (
	RestoreStateSuccess RestoreState = iota
	RestoreStatePartialRestore
	RestoreStateFailure
)

// RestoreFrameResult is the outcome of restoring one chat item record.
// Failures are scoped to the record: the caller decides whether the overall
// import continues.
type RestoreFrameResult struct {
	State  RestoreState
	Errors []*FrameError
}

// IsSuccess returns true if the record restored cleanly.
func (res *RestoreFrameResult) IsSuccess() bool {
	return res.State == RestoreStateSuccess
}

func restoreSuccess() *RestoreFrameResult {
	return &RestoreFrameResult{State: RestoreStateSuccess}
}

func restoreFailure(errs ...*FrameError) *RestoreFrameResult {
	return &RestoreFrameResult{State: RestoreStateFailure, Errors: errs}
}

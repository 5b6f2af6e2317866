// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package frames

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lyc59621/chatbackup/types"
)

// Frame field numbers. The encoding is protobuf wire format, assembled by
// hand so the record definitions in chatitem.go stay the single source of truth.
const (
	fieldChatID       = 1
	fieldAuthorID     = 2
	fieldDateSent     = 3
	fieldSealedSender = 4
	fieldSMS          = 5
	fieldExpireStart  = 6
	fieldExpiresIn    = 7
	fieldRevision     = 8
	fieldOutgoing     = 9

	fieldStandard      = 10
	fieldContact       = 11
	fieldVoice         = 12
	fieldSticker       = 13
	fieldRemoteDeleted = 14
	fieldChatUpdate    = 15
)

// Reaction record field numbers.
const (
	fieldReactionEmoji     = 1
	fieldReactionAuthor    = 2
	fieldReactionSentAt    = 3
	fieldReactionSortOrder = 4
)

// Marshal encodes the ChatItem into protobuf wire format.
func (item *ChatItem) Marshal() []byte {
	var buf []byte
	if item.ChatID != 0 {
		buf = protowire.AppendTag(buf, fieldChatID, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(item.ChatID))
	}
	if item.AuthorID != 0 {
		buf = protowire.AppendTag(buf, fieldAuthorID, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(item.AuthorID))
	}
	if item.DateSentMS != 0 {
		buf = protowire.AppendTag(buf, fieldDateSent, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(item.DateSentMS))
	}
	if item.SealedSender {
		buf = protowire.AppendTag(buf, fieldSealedSender, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeBool(true))
	}
	if item.SMS {
		buf = protowire.AppendTag(buf, fieldSMS, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeBool(true))
	}
	if item.Outgoing {
		buf = protowire.AppendTag(buf, fieldOutgoing, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeBool(true))
	}
	if item.ExpireStartMS != nil {
		buf = protowire.AppendTag(buf, fieldExpireStart, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(*item.ExpireStartMS))
	}
	if item.ExpiresInMS != nil {
		buf = protowire.AppendTag(buf, fieldExpiresIn, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(*item.ExpiresInMS))
	}
	for _, rev := range item.Revisions {
		buf = protowire.AppendTag(buf, fieldRevision, protowire.BytesType)
		buf = protowire.AppendBytes(buf, rev.Marshal())
	}
	buf = item.appendPayload(buf)
	return buf
}

func (item *ChatItem) appendPayload(buf []byte) []byte {
	switch payload := item.Payload.(type) {
	case *StandardMessage:
		var inner []byte
		if len(payload.Text) > 0 {
			inner = protowire.AppendTag(inner, 1, protowire.BytesType)
			inner = protowire.AppendString(inner, payload.Text)
		}
		for _, reaction := range payload.Reactions {
			inner = protowire.AppendTag(inner, 2, protowire.BytesType)
			inner = protowire.AppendBytes(inner, marshalReaction(reaction))
		}
		buf = protowire.AppendTag(buf, fieldStandard, protowire.BytesType)
		buf = protowire.AppendBytes(buf, inner)
	case *ContactMessage:
		var inner []byte
		if len(payload.Name) > 0 {
			inner = protowire.AppendTag(inner, 1, protowire.BytesType)
			inner = protowire.AppendString(inner, payload.Name)
		}
		buf = protowire.AppendTag(buf, fieldContact, protowire.BytesType)
		buf = protowire.AppendBytes(buf, inner)
	case *VoiceMessage:
		var inner []byte
		if payload.DurationMS != 0 {
			inner = protowire.AppendTag(inner, 1, protowire.VarintType)
			inner = protowire.AppendVarint(inner, uint64(payload.DurationMS))
		}
		buf = protowire.AppendTag(buf, fieldVoice, protowire.BytesType)
		buf = protowire.AppendBytes(buf, inner)
	case *StickerMessage:
		var inner []byte
		if len(payload.Emoji) > 0 {
			inner = protowire.AppendTag(inner, 1, protowire.BytesType)
			inner = protowire.AppendString(inner, payload.Emoji)
		}
		if len(payload.PackID) > 0 {
			inner = protowire.AppendTag(inner, 2, protowire.BytesType)
			inner = protowire.AppendString(inner, payload.PackID)
		}
		buf = protowire.AppendTag(buf, fieldSticker, protowire.BytesType)
		buf = protowire.AppendBytes(buf, inner)
	case *RemoteDeleted:
		buf = protowire.AppendTag(buf, fieldRemoteDeleted, protowire.BytesType)
		buf = protowire.AppendBytes(buf, nil)
	case *ChatUpdate:
		var inner []byte
		if payload.Kind != 0 {
			inner = protowire.AppendTag(inner, 1, protowire.VarintType)
			inner = protowire.AppendVarint(inner, uint64(payload.Kind))
		}
		if len(payload.Body) > 0 {
			inner = protowire.AppendTag(inner, 2, protowire.BytesType)
			inner = protowire.AppendString(inner, payload.Body)
		}
		buf = protowire.AppendTag(buf, fieldChatUpdate, protowire.BytesType)
		buf = protowire.AppendBytes(buf, inner)
	}
	return buf
}

func marshalReaction(reaction ReactionRecord) []byte {
	var buf []byte
	if len(reaction.Emoji) > 0 {
		buf = protowire.AppendTag(buf, fieldReactionEmoji, protowire.BytesType)
		buf = protowire.AppendString(buf, reaction.Emoji)
	}
	if reaction.AuthorID != 0 {
		buf = protowire.AppendTag(buf, fieldReactionAuthor, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(reaction.AuthorID))
	}
	if reaction.SentAtMS != 0 {
		buf = protowire.AppendTag(buf, fieldReactionSentAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(reaction.SentAtMS))
	}
	if reaction.SortOrder != 0 {
		buf = protowire.AppendTag(buf, fieldReactionSortOrder, protowire.VarintType)
		buf = protowire.AppendVarint(buf, reaction.SortOrder)
	}
	return buf
}

// Unmarshal decodes a ChatItem from protobuf wire format. Unknown fields are
// skipped so newer backups can still be partially read.
func Unmarshal(data []byte) (*ChatItem, error) {
	var item ChatItem
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("invalid frame tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case typ == protowire.VarintType && num < fieldStandard:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("invalid varint in field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldChatID:
				item.ChatID = types.ChatID(val)
			case fieldAuthorID:
				item.AuthorID = types.RecipientID(val)
			case fieldDateSent:
				item.DateSentMS = int64(val)
			case fieldSealedSender:
				item.SealedSender = protowire.DecodeBool(val)
			case fieldSMS:
				item.SMS = protowire.DecodeBool(val)
			case fieldOutgoing:
				item.Outgoing = protowire.DecodeBool(val)
			case fieldExpireStart:
				start := int64(val)
				item.ExpireStartMS = &start
			case fieldExpiresIn:
				dur := int64(val)
				item.ExpiresInMS = &dur
			}
		case typ == protowire.BytesType:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("invalid length-delimited field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			err := item.unmarshalField(num, val)
			if err != nil {
				return nil, err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return &item, nil
}

func (item *ChatItem) unmarshalField(num protowire.Number, val []byte) error {
	switch num {
	case fieldRevision:
		rev, err := Unmarshal(val)
		if err != nil {
			return fmt.Errorf("invalid revision entry: %w", err)
		}
		item.Revisions = append(item.Revisions, rev)
	case fieldStandard:
		payload := &StandardMessage{}
		err := consumeFields(val, func(inner protowire.Number, varint uint64, bytes []byte) error {
			switch inner {
			case 1:
				payload.Text = string(bytes)
			case 2:
				reaction, err := unmarshalReaction(bytes)
				if err != nil {
					return err
				}
				payload.Reactions = append(payload.Reactions, reaction)
			}
			return nil
		})
		if err != nil {
			return err
		}
		item.Payload = payload
	case fieldContact:
		payload := &ContactMessage{}
		err := consumeFields(val, func(inner protowire.Number, varint uint64, bytes []byte) error {
			if inner == 1 {
				payload.Name = string(bytes)
			}
			return nil
		})
		if err != nil {
			return err
		}
		item.Payload = payload
	case fieldVoice:
		payload := &VoiceMessage{}
		err := consumeFields(val, func(inner protowire.Number, varint uint64, bytes []byte) error {
			if inner == 1 {
				payload.DurationMS = int64(varint)
			}
			return nil
		})
		if err != nil {
			return err
		}
		item.Payload = payload
	case fieldSticker:
		payload := &StickerMessage{}
		err := consumeFields(val, func(inner protowire.Number, varint uint64, bytes []byte) error {
			switch inner {
			case 1:
				payload.Emoji = string(bytes)
			case 2:
				payload.PackID = string(bytes)
			}
			return nil
		})
		if err != nil {
			return err
		}
		item.Payload = payload
	case fieldRemoteDeleted:
		item.Payload = &RemoteDeleted{}
	case fieldChatUpdate:
		payload := &ChatUpdate{}
		err := consumeFields(val, func(inner protowire.Number, varint uint64, bytes []byte) error {
			switch inner {
			case 1:
				payload.Kind = types.ChatUpdateKind(varint)
			case 2:
				payload.Body = string(bytes)
			}
			return nil
		})
		if err != nil {
			return err
		}
		item.Payload = payload
	}
	return nil
}

func unmarshalReaction(data []byte) (reaction ReactionRecord, err error) {
	err = consumeFields(data, func(num protowire.Number, varint uint64, bytes []byte) error {
		switch num {
		case fieldReactionEmoji:
			reaction.Emoji = string(bytes)
		case fieldReactionAuthor:
			reaction.AuthorID = types.RecipientID(varint)
		case fieldReactionSentAt:
			reaction.SentAtMS = int64(varint)
		case fieldReactionSortOrder:
			reaction.SortOrder = varint
		}
		return nil
	})
	return
}

// consumeFields walks a nested message and calls fn with each field. Varint
// fields get their value in varint, length-delimited fields in bytes; other
// wire types are skipped.
func consumeFields(data []byte, fn func(num protowire.Number, varint uint64, bytes []byte) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("invalid tag in nested message: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch typ {
		case protowire.VarintType:
			val, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("invalid varint in nested message: %w", protowire.ParseError(n))
			}
			data = data[n:]
			err := fn(num, val, nil)
			if err != nil {
				return err
			}
		case protowire.BytesType:
			val, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("invalid bytes in nested message: %w", protowire.ParseError(n))
			}
			data = data[n:]
			err := fn(num, 0, val)
			if err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("invalid field in nested message: %w", protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// chatbackup is a command line tool for exporting chat history into a backup
// file and importing it back into a database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lyc59621/chatbackup"
	"github.com/lyc59621/chatbackup/frames"
	"github.com/lyc59621/chatbackup/store/sqlstore"
	"github.com/lyc59621/chatbackup/types"
)

var (
	dbDSN  string
	strict bool

	log zerolog.Logger
)

func main() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:           "chatbackup",
		Short:         "Export and import chat history backups",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "Postgres connection string")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Treat interactions with no matching archiver as errors")
	_ = rootCmd.MarkPersistentFlagRequired("db")

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Archive all interactions into a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0])
		},
	}
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore interactions from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0])
		},
	}
	rootCmd.AddCommand(exportCmd, importCmd)

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func runExport(ctx context.Context, path string) error {
	container, err := sqlstore.New(ctx, dbDSN, log.With().Str("component", "database").Logger())
	if err != nil {
		return err
	}
	defer container.Close()

	// The whole archive pass runs inside one read-only snapshot so the backup
	// is a consistent view of the history.
	tx, err := container.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	threads, err := container.GetAll(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to list threads: %w", err)
	}
	mapping := chatbackup.BuildMappingContext(threads)
	log.Info().Int("threads", mapping.Len()).Msg("Built session context")

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()
	writer, err := frames.NewWriter(file)
	if err != nil {
		return err
	}

	archiver := chatbackup.NewChatItemArchiver(chatbackup.Config{
		Interactions:          container,
		Threads:               container,
		StrictVariantCoverage: strict,
		Log:                   log.With().Str("component", "archiver").Logger(),
	})
	result := archiver.ArchiveInteractions(ctx, tx, writer, mapping)
	if result.IsCompleteFailure() {
		return fmt.Errorf("archive pass failed: %w", result.FatalError)
	}
	err = writer.Flush()
	if err != nil {
		return err
	}
	err = file.Close()
	if err != nil {
		return err
	}

	for _, frameErr := range result.PartialErrors {
		log.Warn().Err(frameErr.Err).
			Str("item", frameErr.ItemID).
			Stringer("kind", frameErr.Kind).
			Msg("Item could not be backed up")
	}
	log.Info().
		Int("frames_written", result.FramesWritten).
		Int("skipped", result.Skipped).
		Int("errors", len(result.PartialErrors)).
		Msg("Backup complete")
	return nil
}

func runImport(ctx context.Context, path string) error {
	container, err := sqlstore.New(ctx, dbDSN, log.With().Str("component", "database").Logger())
	if err != nil {
		return err
	}
	defer container.Close()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()
	reader, err := frames.NewReader(file)
	if err != nil {
		return err
	}

	archiver := chatbackup.NewChatItemArchiver(chatbackup.Config{
		Interactions: container,
		Threads:      container,
		Log:          log.With().Str("component", "archiver").Logger(),
	})
	mapping := chatbackup.NewMappingContext()

	var restored, failed int
	for {
		item, err := reader.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}

		err = ensureThread(ctx, container, mapping, item)
		if err != nil {
			return err
		}

		// Each record restores in its own write transaction: a failed record
		// rolls back alone and the import moves on.
		result, err := restoreOne(ctx, container, archiver, mapping, item)
		if err != nil {
			return err
		}
		if result.IsSuccess() {
			restored++
			continue
		}
		failed++
		for _, frameErr := range result.Errors {
			log.Warn().Err(frameErr.Err).
				Str("item", frameErr.ItemID).
				Stringer("kind", frameErr.Kind).
				Msg("Record could not be restored")
		}
	}
	log.Info().Int("restored", restored).Int("failed", failed).Msg("Import complete")
	return nil
}

// ensureThread creates a local thread for a chat ID the first time it appears
// in the stream and registers the pair in the session context.
func ensureThread(ctx context.Context, container *sqlstore.Container, mapping *chatbackup.MappingContext, item *frames.ChatItem) error {
	if _, ok := mapping.ThreadIDForChat(item.ChatID); ok {
		return nil
	}
	thread := &types.Thread{
		ID:        types.NewThreadID(),
		Recipient: item.AuthorID,
		CreatedAt: time.Now(),
	}
	tx, err := container.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin thread transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	err = container.Put(ctx, tx, thread)
	if err != nil {
		return fmt.Errorf("failed to create thread for chat %s: %w", item.ChatID, err)
	}
	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	return mapping.Register(thread.ID, item.ChatID)
}

func restoreOne(ctx context.Context, container *sqlstore.Container, archiver *chatbackup.ChatItemArchiver, mapping *chatbackup.MappingContext, item *frames.ChatItem) (*chatbackup.RestoreFrameResult, error) {
	tx, err := container.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin write transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	result := archiver.RestoreChatItem(ctx, tx, item, mapping)
	if result.IsSuccess() {
		err = tx.Commit(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to commit restored record: %w", err)
		}
	}
	return result, nil
}

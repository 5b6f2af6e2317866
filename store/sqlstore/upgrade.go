// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type upgradeFunc func(context.Context, pgx.Tx, *Container) error

// Upgrades is a list of functions that will upgrade a database to the latest
// version.
//
// This may be of use if you want to manage the database fully manually, but
// in most cases you should just call Container.Upgrade to let the library
// handle everything.
var Upgrades = [...]upgradeFunc{upgradeV1}

func (c *Container) getVersion(ctx context.Context) (int, error) {
	_, err := c.Pool.Exec(ctx, "CREATE TABLE IF NOT EXISTS chatbackup_version (version INTEGER)")
	if err != nil {
		return -1, err
	}

	version := 0
	row := c.Pool.QueryRow(ctx, "SELECT version FROM chatbackup_version LIMIT 1")
	if row != nil {
		_ = row.Scan(&version)
	}
	return version, nil
}

func (c *Container) setVersion(ctx context.Context, tx pgx.Tx, version int) error {
	_, err := tx.Exec(ctx, "DELETE FROM chatbackup_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "INSERT INTO chatbackup_version (version) VALUES ($1)", version)
	return err
}

// Upgrade upgrades the database from the current to the latest version
// available.
func (c *Container) Upgrade(ctx context.Context) error {
	version, err := c.getVersion(ctx)
	if err != nil {
		return err
	}

	for ; version < len(Upgrades); version++ {
		tx, err := c.Pool.Begin(ctx)
		if err != nil {
			return err
		}

		migrateFunc := Upgrades[version]
		c.log.Info().Int("version", version+1).Msg("Upgrading database")
		err = migrateFunc(ctx, tx, c)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		err = c.setVersion(ctx, tx, version+1)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		err = tx.Commit(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

func upgradeV1(ctx context.Context, tx pgx.Tx, _ *Container) error {
	_, err := tx.Exec(ctx, `CREATE TABLE chatbackup_threads (
		id           TEXT PRIMARY KEY,
		recipient_id BIGINT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		created_at   BIGINT NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `CREATE TABLE chatbackup_interactions (
		id                TEXT PRIMARY KEY,
		thread_id         TEXT NOT NULL REFERENCES chatbackup_threads(id) ON DELETE CASCADE,
		author_id         BIGINT NOT NULL,
		ts                BIGINT NOT NULL,
		direction         SMALLINT NOT NULL,
		kind              SMALLINT NOT NULL,
		body              TEXT NOT NULL DEFAULT '',
		contact_name      TEXT NOT NULL DEFAULT '',
		voice_duration_ms BIGINT NOT NULL DEFAULT 0,
		sticker_emoji     TEXT NOT NULL DEFAULT '',
		sticker_pack_id   TEXT NOT NULL DEFAULT '',
		update_kind       SMALLINT NOT NULL DEFAULT 0,
		sealed_sender     BOOLEAN NOT NULL DEFAULT false,
		sms               BOOLEAN NOT NULL DEFAULT false,
		expire_start_ms   BIGINT,
		expires_in_ms     BIGINT,
		past_revision_of  TEXT REFERENCES chatbackup_interactions(id) ON DELETE CASCADE
	)`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `CREATE INDEX chatbackup_interactions_ts_idx ON chatbackup_interactions (ts, id)`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `CREATE TABLE chatbackup_reactions (
		interaction_id TEXT NOT NULL REFERENCES chatbackup_interactions(id) ON DELETE CASCADE,
		author_id      BIGINT NOT NULL,
		emoji          TEXT NOT NULL,
		sent_at_ms     BIGINT NOT NULL,
		sort_order     BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (interaction_id, author_id)
	)`)
	return err
}

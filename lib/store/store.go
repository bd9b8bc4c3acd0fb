// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/onsocial/onsocial-core/lib/acl"
	"github.com/onsocial/onsocial-core/lib/authn"
	"github.com/onsocial/onsocial-core/lib/codec"
	"github.com/onsocial/onsocial-core/lib/governance"
	"github.com/onsocial/onsocial-core/lib/group"
	"github.com/onsocial/onsocial-core/lib/ref"
	"github.com/onsocial/onsocial-core/lib/state"
)

// Config holds the parameters for opening a snapshot store. Path is
// required; everything else has defaults.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. Use ":memory:" for tests.
	Path string

	// PoolSize is the number of connections. The daemon writes from a
	// single loop, so the default of 2 (one writer, one for ad-hoc
	// reads) is enough.
	PoolSize int

	// Logger receives operational messages. Nil means discard.
	Logger *slog.Logger
}

// Store persists core snapshots. Safe for concurrent use; writes are
// serialized by SQLite.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

const schema = `
	CREATE TABLE IF NOT EXISTS grants (
		owner   TEXT NOT NULL,
		grantee TEXT NOT NULL,
		path    TEXT NOT NULL,
		record  BLOB NOT NULL,
		PRIMARY KEY (owner, grantee, path)
	);
	CREATE TABLE IF NOT EXISTS key_grants (
		owner   TEXT NOT NULL,
		key     TEXT NOT NULL,
		path    TEXT NOT NULL,
		record  BLOB NOT NULL,
		PRIMARY KEY (owner, key, path)
	);
	CREATE TABLE IF NOT EXISTS groups (
		id     TEXT PRIMARY KEY,
		record BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS proposals (
		group_id TEXT NOT NULL,
		id       TEXT NOT NULL,
		record   BLOB NOT NULL,
		PRIMARY KEY (group_id, id)
	);
	CREATE TABLE IF NOT EXISTS nonces (
		account TEXT NOT NULL,
		key     TEXT NOT NULL,
		nonce   INTEGER NOT NULL,
		PRIMARY KEY (account, key)
	);
`

// Open creates the database file if needed, applies the standard
// pragmas to every connection, and ensures the schema exists. The
// caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 2
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", cfg.Path, err)
	}

	logger.Info("snapshot store opened", "path", cfg.Path)
	return &Store{pool: pool, logger: logger, path: cfg.Path}, nil
}

// prepareConnection runs once per pooled connection on first use.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// Close closes all connections. Blocks until borrowed connections are
// returned.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", s.path, err)
	}
	s.logger.Info("snapshot store closed", "path", s.path)
	return nil
}

// Save replaces the persisted snapshot with snap in a single
// IMMEDIATE transaction.
func (s *Store) Save(ctx context.Context, snap *state.Snapshot) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, table := range []string{"grants", "key_grants", "groups", "proposals", "nonces"} {
		if err = sqlitex.ExecuteTransient(conn, "DELETE FROM "+table, nil); err != nil {
			return fmt.Errorf("store: clearing %s: %w", table, err)
		}
	}

	for _, grant := range snap.Grants {
		if err = insertRecord(conn,
			"INSERT INTO grants (owner, grantee, path, record) VALUES (?, ?, ?, ?)",
			grant, grant.Owner, grant.Grantee, grant.Path.String()); err != nil {
			return err
		}
	}
	for _, grant := range snap.KeyGrants {
		if err = insertRecord(conn,
			"INSERT INTO key_grants (owner, key, path, record) VALUES (?, ?, ?, ?)",
			grant, grant.Owner, grant.Key.String(), grant.Path.String()); err != nil {
			return err
		}
	}
	for _, groupState := range snap.Groups {
		if err = insertRecord(conn,
			"INSERT INTO groups (id, record) VALUES (?, ?)",
			groupState, groupState.ID.String()); err != nil {
			return err
		}
	}
	for _, proposal := range snap.Proposals {
		if err = insertRecord(conn,
			"INSERT INTO proposals (group_id, id, record) VALUES (?, ?, ?)",
			proposal, proposal.GroupID.String(), proposal.ID); err != nil {
			return err
		}
	}
	for _, entry := range snap.Nonces {
		if err = sqlitex.Execute(conn,
			"INSERT INTO nonces (account, key, nonce) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{entry.Account.String(), entry.Key.String(), int64(entry.Nonce)},
			}); err != nil {
			return fmt.Errorf("store: inserting nonce: %w", err)
		}
	}
	return nil
}

// insertRecord encodes record as CBOR and binds it as the trailing
// blob column after the key columns.
func insertRecord(conn *sqlite.Conn, query string, record any, keys ...any) error {
	blob, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: encoding record: %w", err)
	}
	args := append(keys, blob)
	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("store: inserting record: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. An empty database yields an
// empty snapshot, not an error.
func (s *Store) Load(ctx context.Context) (*state.Snapshot, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	defer s.pool.Put(conn)

	snap := &state.Snapshot{}

	if err := loadRecords[acl.Grant](conn,
		"SELECT record FROM grants ORDER BY owner, grantee, path",
		&snap.Grants); err != nil {
		return nil, err
	}
	if err := loadRecords[acl.KeyGrant](conn,
		"SELECT record FROM key_grants ORDER BY owner, key, path",
		&snap.KeyGrants); err != nil {
		return nil, err
	}
	if err := loadRecords[group.State](conn,
		"SELECT record FROM groups ORDER BY id",
		&snap.Groups); err != nil {
		return nil, err
	}
	if err := loadRecords[governance.State](conn,
		"SELECT record FROM proposals ORDER BY group_id, id",
		&snap.Proposals); err != nil {
		return nil, err
	}

	err = sqlitex.Execute(conn,
		"SELECT account, key, nonce FROM nonces ORDER BY account, key",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				account, err := ref.ParseAccountID(stmt.ColumnText(0))
				if err != nil {
					return err
				}
				key, err := ref.ParsePublicKey(stmt.ColumnText(1))
				if err != nil {
					return err
				}
				snap.Nonces = append(snap.Nonces, authn.NonceEntry{
					Account: account,
					Key:     key,
					Nonce:   uint64(stmt.ColumnInt64(2)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: loading nonces: %w", err)
	}

	return snap, nil
}

// loadRecords decodes every record blob from query into the slice
// pointed to by out.
func loadRecords[T any](conn *sqlite.Conn, query string, out *[]T) error {
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			var record T
			if err := codec.Unmarshal(blob, &record); err != nil {
				return fmt.Errorf("decoding record: %w", err)
			}
			*out = append(*out, record)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("store: loading records: %w", err)
	}
	return nil
}

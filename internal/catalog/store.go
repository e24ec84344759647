package catalog

import (
	"context"
	"database/sql"
	"errors"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/chrono"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound  = errors.New("code not found")
	ErrDuplicate = errors.New("code already cataloged")
)

const entryColumns = "id, game, code, status, rewards, created_at, updated_at"

// Store is the catalog of codes, unique on (game, code).
type Store struct {
	db    *DB
	clock chrono.API
}

func NewStore(db *DB, clock chrono.API) Store {
	return Store{db: db, clock: clock}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (codes.Entry, error) {
	var (
		entry     codes.Entry
		game      string
		code      string
		status    string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&entry.ID, &game, &code, &status, &entry.Rewards, &createdAt, &updatedAt)
	if err != nil {
		return codes.Entry{}, err
	}
	entry.Game = codes.Game(game)
	entry.Code = codes.Code(code)
	entry.Status = codes.Status(status)
	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return entry, nil
}

func (s Store) queryEntries(ctx context.Context, query string, args ...any) ([]codes.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []codes.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Upsert inserts a code or overwrites the status and rewards of an existing one.
func (s Store) Upsert(ctx context.Context, game codes.Game, code codes.Code, status codes.Status, rewards string) (int64, error) {
	now := s.clock.Now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, s.db.rebind(`
		insert into codes (game, code, status, rewards, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?)
		on conflict (game, code) do update set
			status = excluded.status,
			rewards = excluded.rewards,
			updated_at = excluded.updated_at
		returning id`),
		string(game), string(code), string(status), rewards, now, now,
	).Scan(&id)
	return id, err
}

// Create inserts a code, returning ErrDuplicate when it is already cataloged.
func (s Store) Create(ctx context.Context, game codes.Game, code codes.Code, status codes.Status, rewards string) (int64, error) {
	now := s.clock.Now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx, s.db.rebind(`
		insert into codes (game, code, status, rewards, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?)
		on conflict (game, code) do nothing
		returning id`),
		string(game), string(code), string(status), rewards, now, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicate
	}
	return id, err
}

func (s Store) FindByGameAndCode(ctx context.Context, game codes.Game, code codes.Code) (codes.Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		s.db.rebind("select "+entryColumns+" from codes where game = ? and code = ?"),
		string(game), string(code),
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return codes.Entry{}, ErrNotFound
	}
	return entry, err
}

func (s Store) FindAllByStatus(ctx context.Context, status codes.Status) ([]codes.Entry, error) {
	return s.queryEntries(ctx, "select "+entryColumns+" from codes where status = ? order by id", string(status))
}

// List returns the codes of game ordered by id, optionally only those with status.
func (s Store) List(ctx context.Context, game codes.Game, status *codes.Status) ([]codes.Entry, error) {
	if status == nil {
		return s.queryEntries(ctx, "select "+entryColumns+" from codes where game = ? order by id", string(game))
	}
	return s.queryEntries(
		ctx,
		"select "+entryColumns+" from codes where game = ? and status = ? order by id",
		string(game), string(*status),
	)
}

// UpdateParams holds the fields to change, nil fields are left untouched.
type UpdateParams struct {
	Status  *codes.Status
	Rewards *string
}

func (s Store) Update(ctx context.Context, id int64, params UpdateParams) error {
	var status, rewards sql.NullString
	if params.Status != nil {
		status = sql.NullString{String: string(*params.Status), Valid: true}
	}
	if params.Rewards != nil {
		rewards = sql.NullString{String: *params.Rewards, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, s.db.rebind(`
		update codes set
			status = coalesce(?, status),
			rewards = coalesce(?, rewards),
			updated_at = ?
		where id = ?`),
		status, rewards, s.clock.Now().Unix(), id,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.rebind("delete from codes where id = ?"), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasCodeWithPrefix reports whether a code of game other than exclude starts with prefix.
func (s Store) HasCodeWithPrefix(ctx context.Context, game codes.Game, prefix string, exclude codes.Code) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, s.db.rebind(`
		select count(*) from codes
		where game = ? and substr(code, 1, ?) = ? and code <> ?`),
		string(game), int64(utf8.RuneCountInString(prefix)), prefix, string(exclude),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

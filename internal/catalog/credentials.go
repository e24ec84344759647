package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hoyocodes-backend/internal/codes"
	"hoyocodes-backend/internal/components/chrono"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore keeps the session cookies of each game in the credentials table.
type CredentialStore struct {
	db    *DB
	clock chrono.API
}

func NewCredentialStore(db *DB, clock chrono.API) CredentialStore {
	return CredentialStore{db: db, clock: clock}
}

func (s CredentialStore) Get(ctx context.Context, game codes.Game) (codes.CredentialSet, bool, error) {
	var cookies string
	err := s.db.QueryRowContext(
		ctx,
		s.db.rebind("select cookies from credentials where game = ?"),
		string(game),
	).Scan(&cookies)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return codes.CredentialSet(cookies), true, nil
}

func (s CredentialStore) Set(ctx context.Context, game codes.Game, credentials codes.CredentialSet) error {
	_, err := s.db.ExecContext(ctx, s.db.rebind(`
		insert into credentials (game, cookies, updated_at)
		values (?, ?, ?)
		on conflict (game) do update set
			cookies = excluded.cookies,
			updated_at = excluded.updated_at`),
		string(game), string(credentials), s.clock.Now().Unix(),
	)
	return err
}

// FileCredentialStore keeps credentials in a json object of game to cookie string.
type FileCredentialStore struct {
	path string
	mu   *sync.Mutex
}

func NewFileCredentialStore(path string) FileCredentialStore {
	return FileCredentialStore{path: path, mu: &sync.Mutex{}}
}

func (s FileCredentialStore) read() (map[string]string, error) {
	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if len(content) == 0 {
		return out, nil
	}
	err = json.Unmarshal(content, &out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return out, nil
}

func (s FileCredentialStore) Get(ctx context.Context, game codes.Game) (codes.CredentialSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return "", false, err
	}
	cookies, ok := all[string(game)]
	if !ok || cookies == "" {
		return "", false, nil
	}
	return codes.CredentialSet(cookies), true, nil
}

// Set rewrites the file with the credentials of game replaced, other games are kept.
func (s FileCredentialStore) Set(ctx context.Context, game codes.Game, credentials codes.CredentialSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[string(game)] = string(credentials)

	serialized, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(serialized)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

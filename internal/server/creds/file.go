package creds

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileRepository keeps credentials in a plain text file, one "user hash" pair
// per line. The whole file is loaded at construction and rewritten after
// every registration, matching the behaviour of a single-server deployment.
type FileRepository struct {
	mu    sync.Mutex
	path  string
	users map[string]string
}

// NewFileRepository loads (or creates) the credential file at path.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{path: path, users: make(map[string]string)}
	if err := r.load(); err != nil {
		return nil, err
	}
	if err := r.save(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepository) load() error {
	f, err := os.OpenFile(r.path, os.O_RDONLY|os.O_CREATE, 0o660)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 {
			r.users[fields[0]] = fields[1]
		}
	}
	return scanner.Err()
}

// save rewrites the whole file. Caller must hold r.mu (or be the constructor).
func (r *FileRepository) save() error {
	var b strings.Builder
	for user, hash := range r.users {
		fmt.Fprintf(&b, "%s %s\n", user, hash)
	}
	if err := os.WriteFile(r.path, []byte(b.String()), 0o660); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

func (r *FileRepository) Get(_ context.Context, user string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, ok := r.users[user]
	if !ok {
		return "", ErrNotFound
	}
	return hash, nil
}

func (r *FileRepository) Create(_ context.Context, user, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user]; ok {
		return ErrAlreadyExists
	}
	r.users[user] = passwordHash
	return r.save()
}

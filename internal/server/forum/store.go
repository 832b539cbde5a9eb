// Package forum implements the thread/message/file store behind the command
// dispatcher. All methods are invoked from the single dispatcher goroutine,
// so the in-memory tables need no locking; a JSON snapshot is rewritten after
// every mutation and file bodies go to a BlobStore.
package forum

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mvoronin/forumwire/internal/faults"
	"github.com/mvoronin/forumwire/internal/logging"
)

// DefaultMaxFileSize caps decoded upload bodies at 512 KiB, which after
// base64 expansion still fits a single 1 MiB stream frame.
const DefaultMaxFileSize = 512 << 10

// Store owns the forum state.
type Store struct {
	dbPath      string
	blobs       BlobStore
	maxFileSize int
	logger      logging.Logger

	byID    map[int]*Thread
	byTitle map[string]*Thread
	nextID  int
}

// NewStore loads (or creates) the JSON snapshot at dbPath.
func NewStore(dbPath string, blobs BlobStore, maxFileSize int, logger logging.Logger) (*Store, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	s := &Store{
		dbPath:      dbPath,
		blobs:       blobs,
		maxFileSize: maxFileSize,
		logger:      logger.With("module", "forum"),
		byID:        make(map[int]*Thread),
		byTitle:     make(map[string]*Thread),
		nextID:      1,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.dbPath, err)
	}
	if len(raw) == 0 {
		return nil
	}

	var snapshot map[string]*Thread
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("parse %s: %w", s.dbPath, err)
	}

	maxID := 0
	for key, thread := range snapshot {
		id, err := strconv.Atoi(key)
		if err != nil || thread == nil {
			continue
		}
		thread.ID = id
		if thread.Messages == nil {
			thread.Messages = make(map[int]*Message)
		}
		if thread.Files == nil {
			thread.Files = make(map[int]*File)
		}
		if thread.NextMessageID < 1 {
			thread.NextMessageID = 1
		}
		if thread.NextFileID < 1 {
			thread.NextFileID = 1
		}
		s.byID[id] = thread
		s.byTitle[thread.Title] = thread
		if id > maxID {
			maxID = id
		}
	}
	s.nextID = maxID + 1
	return nil
}

func (s *Store) save() error {
	snapshot := make(map[string]*Thread, len(s.byID))
	for id, thread := range s.byID {
		snapshot[strconv.Itoa(id)] = thread
	}
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.dbPath, raw, 0o660); err != nil {
		return fmt.Errorf("write %s: %w", s.dbPath, err)
	}
	return nil
}

// fetchThread resolves a thread by title, or by numeric id as a fallback.
func (s *Store) fetchThread(title string) (*Thread, error) {
	if thread, ok := s.byTitle[title]; ok {
		return thread, nil
	}
	if id, err := strconv.Atoi(title); err == nil {
		if thread, ok := s.byID[id]; ok {
			return thread, nil
		}
	}
	return nil, faults.New(faults.KindThreadNotFound, 404, "Thread %s not found", title)
}

func (s *Store) fetchMessage(title string, id int) (*Thread, *Message, error) {
	thread, err := s.fetchThread(title)
	if err != nil {
		return nil, nil, err
	}
	msg, ok := thread.Messages[id]
	if !ok {
		return nil, nil, faults.New(faults.KindMessageNotFound, 404, "Message id %d in thread %s not found", id, title)
	}
	return thread, msg, nil
}

func (s *Store) fetchFile(title, name string) (*Thread, *File, error) {
	thread, err := s.fetchThread(title)
	if err != nil {
		return nil, nil, err
	}
	for _, file := range thread.Files {
		if file.Name == name || strconv.Itoa(file.ID) == name {
			return thread, file, nil
		}
	}
	return nil, nil, faults.New(faults.KindFileNotFound, 404, "File %s in thread %s not found", name, title)
}

// CreateThread adds a new empty thread owned by user.
func (s *Store) CreateThread(title, user string) (string, error) {
	if _, ok := s.byTitle[title]; ok {
		return "", faults.New(faults.KindTitleDuplicate, 400, "Thread %s is already exist", title)
	}

	thread := &Thread{
		ID:            s.nextID,
		Title:         title,
		Author:        user,
		NextMessageID: 1,
		NextFileID:    1,
		Messages:      make(map[int]*Message),
		Files:         make(map[int]*File),
	}
	s.nextID++
	s.byID[thread.ID] = thread
	s.byTitle[title] = thread

	if err := s.save(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Thread %s created", title), nil
}

// DeleteThread removes a thread and its blobs; only the author may do so.
// Remaining thread ids are renumbered sequentially, so ids are unstable
// across deletions (kept for wire compatibility with existing clients).
func (s *Store) DeleteThread(ctx context.Context, title, user string) (string, error) {
	thread, err := s.fetchThread(title)
	if err != nil {
		return "", err
	}
	if user != thread.Author {
		return "", faults.New(faults.KindPermissionDenied, 403, "The thread belongs to another user and cannot be edited")
	}

	delete(s.byID, thread.ID)
	delete(s.byTitle, thread.Title)
	s.renumberThreads()

	if err := s.save(); err != nil {
		return "", err
	}
	if err := s.blobs.RemoveThread(ctx, thread.Title); err != nil {
		s.logger.Warn(ctx, "Failed to remove thread blobs", "thread", thread.Title, "error", err.Error())
	}
	return fmt.Sprintf("Thread %s deleted", thread.Title), nil
}

func (s *Store) renumberThreads() {
	ids := make([]int, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	byID := make(map[int]*Thread, len(ids))
	byTitle := make(map[string]*Thread, len(ids))
	for i, id := range ids {
		thread := s.byID[id]
		thread.ID = i + 1
		byID[thread.ID] = thread
		byTitle[thread.Title] = thread
	}
	s.byID = byID
	s.byTitle = byTitle
	s.nextID = len(ids) + 1
}

// ListThreads renders the thread index as an aligned text table.
func (s *Store) ListThreads() string {
	lines := []string{"ID | Thread Title | Author"}

	ids := make([]int, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	if len(ids) == 0 {
		lines = append(lines, "There is no thread in this forum")
	}
	for _, id := range ids {
		thread := s.byID[id]
		lines = append(lines, fmt.Sprintf("%-2d | %-12s | %s", id, thread.Title, thread.Author))
	}
	return strings.Join(lines, "\n")
}

// ReadThread renders a thread's messages (and files, if any) as text.
func (s *Store) ReadThread(title string) (string, error) {
	thread, err := s.fetchThread(title)
	if err != nil {
		return "", err
	}

	lines := []string{"ID | Message"}

	mids := make([]int, 0, len(thread.Messages))
	for id := range thread.Messages {
		mids = append(mids, id)
	}
	sort.Ints(mids)

	if len(mids) == 0 {
		lines = append(lines, "There is no message in this thread")
	}
	for _, id := range mids {
		msg := thread.Messages[id]
		lines = append(lines, fmt.Sprintf("%-2d | %s: %s", id, msg.Author, msg.Body))
	}

	if len(thread.Files) > 0 {
		fids := make([]int, 0, len(thread.Files))
		for id := range thread.Files {
			fids = append(fids, id)
		}
		sort.Ints(fids)

		lines = append(lines, "", "ID | File Name")
		for _, id := range fids {
			file := thread.Files[id]
			lines = append(lines, fmt.Sprintf("%-2d | %s: %s", id, file.Uploader, file.Name))
		}
	}

	return strings.Join(lines, "\n"), nil
}

// PostMessage appends a message to a thread.
func (s *Store) PostMessage(title, text, user string) (string, error) {
	thread, err := s.fetchThread(title)
	if err != nil {
		return "", err
	}

	id := thread.NextMessageID
	thread.Messages[id] = &Message{ID: id, Author: user, Body: text}
	thread.NextMessageID++

	if err := s.save(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Message posted to %s thread", thread.Title), nil
}

// EditMessage replaces a message's body; only the author may edit.
func (s *Store) EditMessage(title string, id int, text, user string) (string, error) {
	_, msg, err := s.fetchMessage(title, id)
	if err != nil {
		return "", err
	}
	if user != msg.Author {
		return "", faults.New(faults.KindPermissionDenied, 403, "The message belongs to another user and cannot be edited")
	}

	msg.Body = text

	if err := s.save(); err != nil {
		return "", err
	}
	return "The message has been edited", nil
}

// DeleteMessage removes a message; remaining message ids are renumbered.
func (s *Store) DeleteMessage(title string, id int, user string) (string, error) {
	thread, msg, err := s.fetchMessage(title, id)
	if err != nil {
		return "", err
	}
	if user != msg.Author {
		return "", faults.New(faults.KindPermissionDenied, 403, "The message belongs to another user and cannot be deleted")
	}

	delete(thread.Messages, msg.ID)

	ids := make([]int, 0, len(thread.Messages))
	for mid := range thread.Messages {
		ids = append(ids, mid)
	}
	sort.Ints(ids)

	messages := make(map[int]*Message, len(ids))
	for i, mid := range ids {
		m := thread.Messages[mid]
		m.ID = i + 1
		messages[m.ID] = m
	}
	thread.Messages = messages
	thread.NextMessageID = len(ids) + 1

	if err := s.save(); err != nil {
		return "", err
	}
	return "The message has been deleted", nil
}

// UploadFile decodes a base64 body and stores it in the blob store.
func (s *Store) UploadFile(ctx context.Context, title, name, content, user string) (string, error) {
	thread, err := s.fetchThread(title)
	if err != nil {
		return "", err
	}

	for _, file := range thread.Files {
		if file.Name == name {
			return "", faults.New(faults.KindFileNameDuplicate, 400, "File %s is already exist", name)
		}
	}

	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", faults.New(faults.KindFileContentDecodeError, 400, "File %s content decode error", name)
	}
	if len(raw) > s.maxFileSize {
		return "", faults.New(faults.KindFileTooLarge, 413, "File %s is too large", name)
	}

	if err := s.blobs.Put(ctx, thread.Title, name, raw); err != nil {
		s.logger.Error(ctx, "Blob write failed", "thread", thread.Title, "name", name, "error", err.Error())
		return "", faults.New(faults.KindFileIOError, 500, "Can not write file %s", name)
	}

	id := thread.NextFileID
	thread.Files[id] = &File{ID: id, Uploader: user, Name: name}
	thread.NextFileID++

	if err := s.save(); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %s uploaded to %s thread", name, thread.Title), nil
}

// DownloadFile returns a file body, base64-encoded.
func (s *Store) DownloadFile(ctx context.Context, title, name string) (string, error) {
	thread, file, err := s.fetchFile(title, name)
	if err != nil {
		return "", err
	}

	raw, err := s.blobs.Get(ctx, thread.Title, file.Name)
	if err != nil {
		s.logger.Error(ctx, "Blob read failed", "thread", thread.Title, "name", file.Name, "error", err.Error())
		return "", faults.New(faults.KindFileIOError, 404, "Can not read file %s", name)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

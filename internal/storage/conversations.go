// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/SamuelBurac/rye/internal/codec"
	"github.com/SamuelBurac/rye/internal/model"
	"github.com/SamuelBurac/rye/internal/util"
)

const (
	// docExt is the extension of conversation documents.
	docExt = ".md"

	// SECURITY: conversations can hold anything the user typed.
	filePerm = 0600
	dirPerm  = 0755

	defaultListWorkers = 8
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore handles conversation persistence. It assumes a single
// writer per conversation document and performs no locking.
type ConversationStore struct {
	// BaseDir is the directory holding the conversation documents.
	BaseDir string

	// ListWorkers bounds how many documents List reads at once.
	ListWorkers int
}

// NewConversationStore creates a store over baseDir. The directory is created
// lazily by Create.
func NewConversationStore(baseDir string) *ConversationStore {
	return &ConversationStore{
		BaseDir:     baseDir,
		ListWorkers: defaultListWorkers,
	}
}

// =============================================================================
// CREATE / APPEND
// =============================================================================

// Create starts a new untitled conversation with a random UUID and writes its
// placeholder document.
func (s *ConversationStore) Create() (*model.Conversation, error) {
	if err := os.MkdirAll(s.BaseDir, dirPerm); err != nil {
		return nil, errors.Wrapf(err, "create conversation directory %s", s.BaseDir)
	}

	id := uuid.NewString()
	conv := &model.Conversation{
		ID:    id,
		Turns: []model.Turn{},
		Path:  s.filePath(id),
	}

	if err := util.AtomicWriteFile(conv.Path, []byte(codec.Header(id, "")), filePerm); err != nil {
		return nil, errors.Wrapf(err, "write conversation %s", conv.Path)
	}

	log.Debug().Str("id", id).Str("path", conv.Path).Msg("conversation created")
	return conv, nil
}

// AppendTurn records a turn in memory and appends its section to the end of
// the document. Existing bytes are never rewritten. The data is synced before
// AppendTurn returns.
func (s *ConversationStore) AppendTurn(conv *model.Conversation, role model.Role, content string) error {
	if !role.Valid() {
		return errors.Errorf("unknown role %q", role)
	}
	if conv.Path == "" {
		return errors.Errorf("conversation %s has no document path", conv.ID)
	}

	turn := model.Turn{Role: role, Content: content}
	conv.Turns = append(conv.Turns, turn)

	f, err := os.OpenFile(conv.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return errors.Wrapf(err, "open conversation %s", conv.Path)
	}

	if _, err := io.WriteString(f, codec.FormatTurn(turn)); err != nil {
		f.Close()
		return errors.Wrapf(err, "append turn to %s", conv.Path)
	}

	// RELIABILITY: an acknowledged turn must survive a crash
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "sync %s", conv.Path)
	}

	return errors.Wrapf(f.Close(), "close %s", conv.Path)
}

// =============================================================================
// TITLE
// =============================================================================

// AssignTitle renames the conversation after title. The full document, now
// headed by the normalized title, is written atomically to
// "<sanitized title>.md"; only then is the old document removed. The
// sanitized form becomes the ID. On error the conversation keeps its
// previous ID, title and path and the old document is untouched.
func (s *ConversationStore) AssignTitle(conv *model.Conversation, title string) error {
	display := codec.NormalizeTitle(title)
	clean := codec.SanitizeTitle(display)
	if display == "" || clean == "" || codec.IsPlaceholderTitle(display) {
		return errors.Wrapf(ErrInvalidTitle, "%q", title)
	}

	newPath := s.filePath(clean)
	samePath := sameFile(newPath, conv.Path)

	if !samePath {
		if _, err := os.Stat(newPath); err == nil {
			return errors.Wrapf(ErrTitleCollision, "%s", newPath)
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "check %s", newPath)
		}
	}

	renamed := *conv
	renamed.ID = clean
	renamed.Title = display
	renamed.Path = newPath

	if err := util.AtomicWriteFile(newPath, []byte(codec.Serialize(&renamed)), filePerm); err != nil {
		return errors.Wrapf(err, "write conversation %s", newPath)
	}

	if !samePath && conv.Path != "" {
		if err := os.Remove(conv.Path); err != nil && !os.IsNotExist(err) {
			// The new document is complete; a leftover old file only
			// duplicates it.
			log.Warn().Err(err).Str("path", conv.Path).Msg("could not remove previous conversation document")
		}
	}

	log.Debug().Str("from", conv.Path).Str("to", newPath).Msg("conversation titled")

	conv.ID = renamed.ID
	conv.Title = renamed.Title
	conv.Path = renamed.Path
	return nil
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load resolves ref to a conversation. A trailing ".md" on ref is ignored. An
// exact "<ref>.md" wins; otherwise ref is matched as a substring of the
// document filenames. No match, or an unreadable directory, yields
// ErrConversationNotFound. Several matches yield an *AmbiguousError listing
// them.
func (s *ConversationStore) Load(ref string) (*model.Conversation, error) {
	ref = strings.TrimSuffix(strings.TrimSpace(ref), docExt)
	if ref == "" {
		return nil, ErrConversationNotFound
	}

	if !strings.ContainsAny(ref, `/\`) {
		exact := s.filePath(ref)
		if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
			return s.LoadPath(exact)
		}
	}

	matches, err := s.Find(ref)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, errors.Wrapf(ErrConversationNotFound, "%q", ref)
	case 1:
		return s.LoadPath(matches[0].Path)
	default:
		return nil, &AmbiguousError{Ref: ref, Candidates: matches}
	}
}

// LoadPath reads and parses one conversation document.
func (s *ConversationStore) LoadPath(path string) (*model.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrConversationNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "read conversation %s", path)
	}

	turns, title := codec.Parse(string(data))
	if turns == nil {
		turns = []model.Turn{}
	}

	return &model.Conversation{
		ID:    model.IDFromPath(path),
		Title: title,
		Turns: turns,
		Path:  path,
	}, nil
}

// Find returns every conversation whose filename, without the extension,
// contains fragment, newest first.
func (s *ConversationStore) Find(fragment string) ([]model.Summary, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, errors.Wrapf(ErrConversationNotFound, "read %s: %v", s.BaseDir, err)
	}

	var matched []os.DirEntry
	for _, entry := range documents(entries) {
		if strings.Contains(strings.TrimSuffix(entry.Name(), docExt), fragment) {
			matched = append(matched, entry)
		}
	}

	return s.summarize(matched), nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns a summary of every stored conversation, most recently
// modified first. Only each document's first line is read. A missing
// directory is not an error.
func (s *ConversationStore) List() ([]model.Summary, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Summary{}, nil
		}
		return nil, errors.Wrapf(err, "read %s", s.BaseDir)
	}

	return s.summarize(documents(entries)), nil
}

// summarize builds summaries for entries concurrently. Entries that vanish or
// cannot be read are skipped. Ties in modification time keep entry order.
func (s *ConversationStore) summarize(entries []os.DirEntry) []model.Summary {
	results := make([]*model.Summary, len(entries))

	workers := s.ListWorkers
	if workers <= 0 {
		workers = defaultListWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			path := filepath.Join(s.BaseDir, entry.Name())

			info, err := entry.Info()
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("skipping conversation")
				return nil
			}

			title, err := readTitle(path)
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("skipping conversation")
				return nil
			}

			results[i] = &model.Summary{
				ID:           model.IDFromPath(path),
				Title:        title,
				Path:         path,
				LastModified: info.ModTime(),
			}
			return nil
		})
	}
	_ = g.Wait()

	summaries := make([]model.Summary, 0, len(results))
	for _, r := range results {
		if r != nil {
			summaries = append(summaries, *r)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastModified.After(summaries[j].LastModified)
	})

	return summaries
}

// readTitle reads only the first line of a document.
func readTitle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return codec.TitleFromHeading(strings.TrimSuffix(line, "\n")), nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation document by ID.
func (s *ConversationStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrConversationNotFound, "%q", id)
		}
		return errors.Wrapf(err, "delete conversation %s", id)
	}
	return nil
}

// RemoveIfEmpty deletes the document of a conversation that never received a
// turn. The document is only removed while it still holds nothing but the
// header this process would write for it.
func (s *ConversationStore) RemoveIfEmpty(conv *model.Conversation) (bool, error) {
	if !conv.IsEmpty() || conv.Path == "" {
		return false, nil
	}

	data, err := os.ReadFile(conv.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "read %s", conv.Path)
	}
	if string(data) != codec.Serialize(conv) {
		return false, nil
	}

	if err := os.Remove(conv.Path); err != nil {
		return false, errors.Wrapf(err, "remove %s", conv.Path)
	}
	log.Debug().Str("path", conv.Path).Msg("removed empty conversation")
	return true, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// filePath returns the document path for a conversation ID.
func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+docExt)
}

// documents filters directory entries down to conversation documents.
func documents(entries []os.DirEntry) []os.DirEntry {
	docs := make([]os.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		docs = append(docs, e)
	}
	return docs
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelBurac/rye/internal/codec"
	"github.com/SamuelBurac/rye/internal/model"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	return NewConversationStore(t.TempDir())
}

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeDoc(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

// =============================================================================
// CREATE / APPEND TESTS
// =============================================================================

func TestConversationStore_Create(t *testing.T) {
	store := NewConversationStore(filepath.Join(t.TempDir(), "nested", "dir"))

	conv, err := store.Create()
	require.NoError(t, err)

	_, err = uuid.Parse(conv.ID)
	assert.NoError(t, err, "ID should be a UUID")
	assert.Empty(t, conv.Title)
	assert.Empty(t, conv.Turns)
	assert.Equal(t, filepath.Join(store.BaseDir, conv.ID+".md"), conv.Path)
	assert.Equal(t, "# Conversation "+conv.ID+"\n\n", readDoc(t, conv.Path))
}

func TestConversationStore_CreateUniqueIDs(t *testing.T) {
	store := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		conv, err := store.Create()
		require.NoError(t, err)
		require.False(t, seen[conv.ID], "duplicate id %s", conv.ID)
		seen[conv.ID] = true
	}
}

func TestConversationStore_AppendTurn(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.AppendTurn(conv, model.RoleUser, "Hello"))
	require.NoError(t, store.AppendTurn(conv, model.RoleAssistant, "Hi there"))

	assert.Equal(t, []model.Turn{
		model.NewUserTurn("Hello"),
		model.NewAssistantTurn("Hi there"),
	}, conv.Turns)

	want := "# Conversation " + conv.ID + "\n\n" +
		"\n## You\n\nHello\n\n" +
		"\n## Assistant\n\nHi there\n\n"
	assert.Equal(t, want, readDoc(t, conv.Path))
	assert.Equal(t, codec.Serialize(conv), readDoc(t, conv.Path))
}

func TestConversationStore_AppendTurnOnlyGrowsDocument(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	prev := readDoc(t, conv.Path)
	for i, content := range []string{"one", "two\n\nparagraphs", "three"} {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		require.NoError(t, store.AppendTurn(conv, role, content))
		cur := readDoc(t, conv.Path)
		require.True(t, strings.HasPrefix(cur, prev), "append rewrote earlier bytes")
		prev = cur
	}
}

func TestConversationStore_AppendTurnRejectsUnknownRole(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	err = store.AppendTurn(conv, model.Role("system"), "x")
	assert.Error(t, err)
	assert.Empty(t, conv.Turns)
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestConversationStore_LoadExact(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendTurn(conv, model.RoleUser, "Hello"))
	require.NoError(t, store.AppendTurn(conv, model.RoleAssistant, "Hi"))

	loaded, err := store.Load(conv.ID)
	require.NoError(t, err)

	assert.Equal(t, conv.ID, loaded.ID)
	assert.Equal(t, conv.Path, loaded.Path)
	assert.Empty(t, loaded.Title)
	assert.Equal(t, conv.Turns, loaded.Turns)
}

func TestConversationStore_LoadSubstring(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.BaseDir, 0755))
	writeDoc(t, store.BaseDir, "My-Title-abc123.md", "# My-Title-abc123\n\n\n## You\n\nhi\n\n", time.Now())

	conv, err := store.Load("abc")
	require.NoError(t, err)
	assert.Equal(t, "My-Title-abc123", conv.ID)
	assert.Equal(t, "My-Title-abc123", conv.Title)
	assert.Equal(t, []model.Turn{model.NewUserTurn("hi")}, conv.Turns)
}

func TestConversationStore_LoadExactBeatsSubstring(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	writeDoc(t, store.BaseDir, "abc.md", "# Exact\n\n", now.Add(-time.Hour))
	writeDoc(t, store.BaseDir, "abc-longer.md", "# Longer\n\n", now)

	conv, err := store.Load("abc")
	require.NoError(t, err)
	assert.Equal(t, "Exact", conv.Title)
}

func TestConversationStore_LoadWithExtension(t *testing.T) {
	store := newTestStore(t)
	writeDoc(t, store.BaseDir, "notes.md", "# notes\n\n", time.Now())

	for _, ref := range []string{"notes.md", "tes.md", " notes.md "} {
		conv, err := store.Load(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "notes", conv.ID, ref)
	}
}

func TestConversationStore_LoadAmbiguous(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	writeDoc(t, store.BaseDir, "trip-paris.md", "# trip-paris\n\n", now.Add(-time.Hour))
	writeDoc(t, store.BaseDir, "trip-rome.md", "# trip-rome\n\n", now)

	_, err := store.Load("trip")
	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb), "want AmbiguousError, got %v", err)
	assert.Equal(t, "trip", amb.Ref)
	require.Len(t, amb.Candidates, 2)
	assert.Equal(t, "trip-rome", amb.Candidates[0].ID)
	assert.Equal(t, "trip-paris", amb.Candidates[1].ID)
}

func TestConversationStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)
	writeDoc(t, store.BaseDir, "something.md", "# something\n\n", time.Now())

	for _, ref := range []string{"missing", "", "   ", "../something", "md", ".md"} {
		_, err := store.Load(ref)
		assert.True(t, errors.Is(err, ErrConversationNotFound), "Load(%q) = %v", ref, err)
	}
}

func TestConversationStore_LoadUnreadableDir(t *testing.T) {
	store := NewConversationStore(filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := store.Load("abc")
	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

// =============================================================================
// TITLE TESTS
// =============================================================================

func TestConversationStore_AssignTitle(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)
	oldPath := conv.Path
	require.NoError(t, store.AppendTurn(conv, model.RoleUser, "Plan my trip"))
	require.NoError(t, store.AppendTurn(conv, model.RoleAssistant, "Sure"))

	require.NoError(t, store.AssignTitle(conv, "Trip: Paris/Rome"))

	// Only the filename is sanitized
	assert.Equal(t, "Trip: Paris/Rome", conv.Title)
	assert.Equal(t, "Trip_ Paris_Rome", conv.ID)
	assert.Equal(t, filepath.Join(store.BaseDir, "Trip_ Paris_Rome.md"), conv.Path)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err), "old document should be gone")

	doc := readDoc(t, conv.Path)
	assert.True(t, strings.HasPrefix(doc, "# Trip: Paris/Rome\n\n"))
	assert.Equal(t, codec.Serialize(conv), doc)

	loaded, err := store.Load(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.Title, loaded.Title)
	assert.Equal(t, conv.Turns, loaded.Turns)
}

func TestConversationStore_AssignTitleHeadingMarkers(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendTurn(conv, model.RoleUser, "jot this down"))

	require.NoError(t, store.AssignTitle(conv, "# Notes\nsecond line"))
	assert.Equal(t, "Notes", conv.Title)
	assert.Equal(t, "Notes", conv.ID)
	assert.True(t, strings.HasPrefix(readDoc(t, conv.Path), "# Notes\n\n"))

	loaded, err := store.Load("Notes")
	require.NoError(t, err)
	assert.Equal(t, conv.Title, loaded.Title)
	assert.Equal(t, conv.Turns, loaded.Turns)

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Notes", summaries[0].Title)
}

func TestConversationStore_AssignTitleThenAppend(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendTurn(conv, model.RoleUser, "q1"))
	require.NoError(t, store.AssignTitle(conv, "Questions"))
	require.NoError(t, store.AppendTurn(conv, model.RoleAssistant, "a1"))

	loaded, err := store.Load("Questions")
	require.NoError(t, err)
	assert.Equal(t, []model.Turn{model.NewUserTurn("q1"), model.NewAssistantTurn("a1")}, loaded.Turns)
}

func TestConversationStore_AssignTitleCollision(t *testing.T) {
	store := newTestStore(t)
	first, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AssignTitle(first, "Shared"))

	second, err := store.Create()
	require.NoError(t, err)
	secondPath := second.Path
	secondID := second.ID

	err = store.AssignTitle(second, "Shared")
	assert.True(t, errors.Is(err, ErrTitleCollision), "got %v", err)

	// Nothing changed for the second conversation
	assert.Equal(t, secondID, second.ID)
	assert.Empty(t, second.Title)
	assert.Equal(t, secondPath, second.Path)
	assert.Equal(t, codec.Header(secondID, ""), readDoc(t, secondPath))

	// The first conversation's document is untouched
	assert.Equal(t, "# Shared\n\n", readDoc(t, first.Path))
}

func TestConversationStore_AssignTitleSameName(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AssignTitle(conv, "Notes"))
	require.NoError(t, store.AppendTurn(conv, model.RoleUser, "x"))

	require.NoError(t, store.AssignTitle(conv, " Notes "))
	assert.Equal(t, codec.Serialize(conv), readDoc(t, conv.Path))
}

func TestConversationStore_AssignTitleInvalid(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	for _, title := range []string{"", "   ", "\n\t", "Conversation 1234", "# Conversation 1234", "##"} {
		err := store.AssignTitle(conv, title)
		assert.True(t, errors.Is(err, ErrInvalidTitle), "AssignTitle(%q) = %v", title, err)
	}
	assert.Empty(t, conv.Title)
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestConversationStore_ListMissingDir(t *testing.T) {
	store := NewConversationStore(filepath.Join(t.TempDir(), "none"))

	summaries, err := store.List()
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestConversationStore_ListOrderAndTitles(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	writeDoc(t, store.BaseDir, "old.md", "# Old one\n\n", now.Add(-2*time.Hour))
	writeDoc(t, store.BaseDir, "new.md", "# New one\n\n\n## You\n\nhello\n\n", now)
	writeDoc(t, store.BaseDir, "mid.md", "# Conversation mid\n\n", now.Add(-time.Hour))
	writeDoc(t, store.BaseDir, "notes.txt", "not a conversation", now)
	require.NoError(t, os.Mkdir(filepath.Join(store.BaseDir, "dir.md"), 0755))

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "new", summaries[0].ID)
	assert.Equal(t, "New one", summaries[0].Title)
	assert.Equal(t, "mid", summaries[1].ID)
	assert.Empty(t, summaries[1].Title, "placeholder is not a title")
	assert.Equal(t, "old", summaries[2].ID)
	assert.Equal(t, "Old one", summaries[2].Title)

	for i := 1; i < len(summaries); i++ {
		assert.False(t, summaries[i].LastModified.After(summaries[i-1].LastModified))
	}
}

func TestConversationStore_ListTiesKeepDirectoryOrder(t *testing.T) {
	store := newTestStore(t)
	same := time.Now().Truncate(time.Second)
	for _, name := range []string{"c.md", "a.md", "b.md"} {
		writeDoc(t, store.BaseDir, name, "# "+name+"\n\n", same)
	}
	store.ListWorkers = 1

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{summaries[0].ID, summaries[1].ID, summaries[2].ID})
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestConversationStore_Delete(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.Delete(conv.ID))
	_, err = store.Load(conv.ID)
	assert.True(t, errors.Is(err, ErrConversationNotFound))

	err = store.Delete(conv.ID)
	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestConversationStore_RemoveIfEmpty(t *testing.T) {
	store := newTestStore(t)

	empty, err := store.Create()
	require.NoError(t, err)
	removed, err := store.RemoveIfEmpty(empty)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = os.Stat(empty.Path)
	assert.True(t, os.IsNotExist(err))

	used, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendTurn(used, model.RoleUser, "keep me"))
	removed, err = store.RemoveIfEmpty(used)
	require.NoError(t, err)
	assert.False(t, removed)
	_, err = os.Stat(used.Path)
	assert.NoError(t, err)
}

func TestConversationStore_RemoveIfEmptyKeepsEditedDocument(t *testing.T) {
	store := newTestStore(t)
	conv, err := store.Create()
	require.NoError(t, err)

	// Someone added notes by hand outside any turn.
	f, err := os.OpenFile(conv.Path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("scratch notes\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	removed, err := store.RemoveIfEmpty(conv)
	require.NoError(t, err)
	assert.False(t, removed)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestConversationError_Is(t *testing.T) {
	err := &ConversationError{Message: "conversation not found"}
	assert.True(t, errors.Is(err, ErrConversationNotFound))
	assert.False(t, errors.Is(err, ErrTitleCollision))
	assert.False(t, errors.Is(errors.New("conversation not found"), ErrConversationNotFound))
}

func TestAmbiguousError_Message(t *testing.T) {
	err := &AmbiguousError{Ref: "ab", Candidates: []model.Summary{{ID: "abc"}, {ID: "xab"}}}
	assert.Equal(t, `"ab" matches 2 conversations: abc, xab`, err.Error())
}

package storage

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/askfredo/memo-backend/internal/core"
)

// testDB creates an in-memory database for testing
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func testNote(content string, tags ...string) *core.Note {
	if tags == nil {
		tags = []string{"note"}
	}
	return &core.Note{
		ID:       uuid.NewString(),
		UserID:   core.DefaultUserID,
		Content:  content,
		Type:     core.NoteSimple,
		Hashtags: tags,
	}
}

func testEvent(noteID, title string, start time.Time) *core.CalendarEvent {
	return &core.CalendarEvent{
		ID:            uuid.NewString(),
		UserID:        core.DefaultUserID,
		NoteID:        noteID,
		Title:         title,
		StartDatetime: start,
	}
}

// =============================================================================
// DB Tests
// =============================================================================

func TestDB_Open_InMemory(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.conn == nil {
		t.Error("db.conn should not be nil")
	}
	if !db.isMemory {
		t.Error("db.isMemory should be true for in-memory database")
	}
}

func TestDB_Migrate_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrations again must be a no-op
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestDB_Transaction_Rollback(t *testing.T) {
	db := testDB(t)
	notes := NewNoteStore(db)

	wantErr := errors.New("boom")
	err := db.Transaction(func(tx *sql.Tx) error {
		if err := insertNote(tx, testNote("survives nothing")); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Transaction() error = %v, want %v", err, wantErr)
	}

	count, err := notes.Count(core.DefaultUserID)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("note count after rollback = %d, want 0", count)
	}
}

// =============================================================================
// NoteStore Tests
// =============================================================================

func TestNoteStore_CreateAndGet(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	note := testNote("buy milk", "shopping")
	if err := store.Create(note); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}

	got, err := store.GetByID(note.ID, core.DefaultUserID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Content != "buy milk" {
		t.Errorf("Content = %q, want %q", got.Content, "buy milk")
	}
	if len(got.Hashtags) != 1 || got.Hashtags[0] != "shopping" {
		t.Errorf("Hashtags = %v, want [shopping]", got.Hashtags)
	}
}

func TestNoteStore_GetByID_NotFound(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	_, err := store.GetByID(uuid.NewString(), core.DefaultUserID)
	if !errors.Is(err, core.ErrNoteNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNoteNotFound", err)
	}
}

func TestNoteStore_GetByID_WrongUser(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	note := testNote("mine")
	if err := store.Create(note); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := store.GetByID(note.ID, uuid.NewString())
	if !errors.Is(err, core.ErrNoteNotFound) {
		t.Errorf("GetByID() with other user = %v, want ErrNoteNotFound", err)
	}
}

func TestNoteStore_CreateWithEvent_Atomic(t *testing.T) {
	db := testDB(t)
	notes := NewNoteStore(db)
	events := NewEventStore(db)

	note := testNote("dentist tomorrow at 3pm", "health")
	note.Type = core.NoteEvent
	event := testEvent("", "🦷 Dentist", time.Now().Add(24*time.Hour).UTC())

	if err := notes.CreateWithEvent(note, event); err != nil {
		t.Fatalf("CreateWithEvent() error = %v", err)
	}
	if event.NoteID != note.ID {
		t.Errorf("event.NoteID = %q, want note ID %q", event.NoteID, note.ID)
	}

	got, err := events.GetByNote(note.ID)
	if err != nil {
		t.Fatalf("GetByNote() error = %v", err)
	}
	if got.Title != "🦷 Dentist" {
		t.Errorf("event title = %q", got.Title)
	}
}

func TestNoteStore_ListRecent_ExcludesTag(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	public := testNote("grocery list", "shopping")
	private := testNote("bank pin is 1234", "private")
	for _, n := range []*core.Note{public, private} {
		if err := store.Create(n); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.ListRecent(core.DefaultUserID, "private", 20)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListRecent() returned %d notes, want 1", len(got))
	}
	if got[0].ID != public.ID {
		t.Errorf("ListRecent() returned wrong note %q", got[0].Content)
	}
}

func TestNoteStore_ListRecent_ExcludesArchived(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	note := testNote("old stuff")
	if err := store.Create(note); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	archived := true
	if _, err := store.Patch(note.ID, core.DefaultUserID, core.NotePatch{IsArchived: &archived}); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	got, err := store.ListRecent(core.DefaultUserID, "", 20)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListRecent() returned %d notes, want 0", len(got))
	}
}

func TestNoteStore_ListStandalone_SkipsEventNotes(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	plain := testNote("just a thought")
	if err := store.Create(plain); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	withEvent := testNote("party friday")
	withEvent.Type = core.NoteEvent
	event := testEvent("", "🎉 Party", time.Now().UTC())
	if err := store.CreateWithEvent(withEvent, event); err != nil {
		t.Fatalf("CreateWithEvent() error = %v", err)
	}

	got, err := store.ListStandalone(core.DefaultUserID, 50)
	if err != nil {
		t.Fatalf("ListStandalone() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListStandalone() returned %d notes, want 1", len(got))
	}
	if got[0].ID != plain.ID {
		t.Errorf("ListStandalone() returned event-backed note")
	}
}

func TestNoteStore_Patch(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	note := testNote("draft", "ideas")
	if err := store.Create(note); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	content := "final"
	fav := true
	got, err := store.Patch(note.ID, core.DefaultUserID, core.NotePatch{
		Content:    &content,
		IsFavorite: &fav,
	})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if got.Content != "final" {
		t.Errorf("Content = %q, want %q", got.Content, "final")
	}
	if !got.IsFavorite {
		t.Error("IsFavorite should be true")
	}
	// Untouched fields keep their values
	if len(got.Hashtags) != 1 || got.Hashtags[0] != "ideas" {
		t.Errorf("Hashtags = %v, want [ideas]", got.Hashtags)
	}
}

func TestNoteStore_Patch_Empty(t *testing.T) {
	db := testDB(t)
	store := NewNoteStore(db)

	note := testNote("anything")
	if err := store.Create(note); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := store.Patch(note.ID, core.DefaultUserID, core.NotePatch{})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Patch() with empty patch = %v, want ErrInvalidInput", err)
	}
}

func TestNoteStore_Delete_CascadesToEvent(t *testing.T) {
	db := testDB(t)
	notes := NewNoteStore(db)
	events := NewEventStore(db)

	note := testNote("meeting monday")
	note.Type = core.NoteEvent
	event := testEvent("", "📞 Meeting", time.Now().UTC())
	if err := notes.CreateWithEvent(note, event); err != nil {
		t.Fatalf("CreateWithEvent() error = %v", err)
	}

	if err := notes.Delete(note.ID, core.DefaultUserID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := notes.GetByID(note.ID, core.DefaultUserID); !errors.Is(err, core.ErrNoteNotFound) {
		t.Errorf("note still present after delete: %v", err)
	}
	if _, err := events.GetByID(event.ID, core.DefaultUserID); !errors.Is(err, core.ErrEventNotFound) {
		t.Errorf("linked event still present after note delete: %v", err)
	}
}

// =============================================================================
// EventStore Tests
// =============================================================================

func TestEventStore_CreateAndGet(t *testing.T) {
	db := testDB(t)
	store := NewEventStore(db)

	event := testEvent("", "☕ Coffee with Ana", time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC))
	event.IsSocial = true
	if err := store.Create(event); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if event.Color != "blue" {
		t.Errorf("Color default = %q, want blue", event.Color)
	}

	got, err := store.GetByID(event.ID, core.DefaultUserID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.IsSocial {
		t.Error("IsSocial should survive round trip")
	}
	if got.NoteID != "" {
		t.Errorf("NoteID = %q, want empty for standalone event", got.NoteID)
	}
}

func TestEventStore_ListUpcoming_WindowAndOrder(t *testing.T) {
	db := testDB(t)
	store := NewEventStore(db)

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	later := testEvent("", "later", base.Add(48*time.Hour))
	sooner := testEvent("", "sooner", base.Add(2*time.Hour))
	past := testEvent("", "past", base.Add(-24*time.Hour))
	for _, e := range []*core.CalendarEvent{later, sooner, past} {
		if err := store.Create(e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.ListUpcoming(core.DefaultUserID, base, base.Add(30*24*time.Hour), 20)
	if err != nil {
		t.Fatalf("ListUpcoming() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListUpcoming() returned %d events, want 2", len(got))
	}
	if got[0].Title != "sooner" || got[1].Title != "later" {
		t.Errorf("events out of order: %q then %q", got[0].Title, got[1].Title)
	}
}

func TestEventStore_ListAll_IncludesPast(t *testing.T) {
	db := testDB(t)
	store := NewEventStore(db)

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	past := testEvent("", "past", base.Add(-24*time.Hour))
	future := testEvent("", "future", base.Add(24*time.Hour))
	for _, e := range []*core.CalendarEvent{future, past} {
		if err := store.Create(e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.ListAll(core.DefaultUserID, 20)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListAll() returned %d events, want 2", len(got))
	}
	if got[0].Title != "past" || got[1].Title != "future" {
		t.Errorf("events out of order: %q then %q", got[0].Title, got[1].Title)
	}
}

func TestEventStore_Patch(t *testing.T) {
	db := testDB(t)
	store := NewEventStore(db)

	event := testEvent("", "🎂 Birthday", time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
	if err := store.Create(event); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loc := "Casa de Marta"
	got, err := store.Patch(event.ID, core.DefaultUserID, core.EventPatch{Location: &loc})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if got.Location != loc {
		t.Errorf("Location = %q, want %q", got.Location, loc)
	}
	if got.Title != "🎂 Birthday" {
		t.Errorf("Title changed by unrelated patch: %q", got.Title)
	}
}

func TestEventStore_Delete_NotFound(t *testing.T) {
	db := testDB(t)
	store := NewEventStore(db)

	err := store.Delete(uuid.NewString(), core.DefaultUserID)
	if !errors.Is(err, core.ErrEventNotFound) {
		t.Errorf("Delete() error = %v, want ErrEventNotFound", err)
	}
}

// =============================================================================
// NotificationStore Tests
// =============================================================================

func TestNotificationStore_CreateListMarkRead(t *testing.T) {
	db := testDB(t)
	store := NewNotificationStore(db)

	n := &core.Notification{
		ID:      uuid.NewString(),
		UserID:  core.DefaultUserID,
		Title:   "Reminder saved",
		Message: "I'll remind you about the dentist",
		Type:    core.NotifyReminder,
	}
	if err := store.Create(n); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	unread, err := store.UnreadCount(core.DefaultUserID)
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if unread != 1 {
		t.Errorf("UnreadCount() = %d, want 1", unread)
	}

	if err := store.MarkRead(n.ID, core.DefaultUserID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	got, err := store.List(core.DefaultUserID, true, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List(unreadOnly) after MarkRead = %d items, want 0", len(got))
	}
}

func TestNotificationStore_MarkAllRead(t *testing.T) {
	db := testDB(t)
	store := NewNotificationStore(db)

	for i := 0; i < 3; i++ {
		n := &core.Notification{
			ID:      uuid.NewString(),
			UserID:  core.DefaultUserID,
			Title:   "n",
			Message: "m",
		}
		if err := store.Create(n); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	count, err := store.MarkAllRead(core.DefaultUserID)
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if count != 3 {
		t.Errorf("MarkAllRead() = %d, want 3", count)
	}
}

// =============================================================================
// CredentialStore Tests
// =============================================================================

func TestCredentialStore_CreateAndList(t *testing.T) {
	db := testDB(t)
	store := NewCredentialStore(db)

	plain := &core.Credential{
		ID:                uuid.NewString(),
		UserID:            core.DefaultUserID,
		Title:             "Email",
		Email:             "me@example.com",
		EncryptedPassword: "ciphertext-1",
	}
	fav := &core.Credential{
		ID:                uuid.NewString(),
		UserID:            core.DefaultUserID,
		Title:             "Bank",
		EncryptedPassword: "ciphertext-2",
		Category:          "finance",
		IsFavorite:        true,
	}
	for _, c := range []*core.Credential{plain, fav} {
		if err := store.Create(c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.List(core.DefaultUserID, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(got))
	}
	if got[0].Title != "Bank" {
		t.Errorf("favorites should sort first, got %q", got[0].Title)
	}

	finance, err := store.List(core.DefaultUserID, "finance")
	if err != nil {
		t.Fatalf("List(finance) error = %v", err)
	}
	if len(finance) != 1 || finance[0].Title != "Bank" {
		t.Errorf("List(finance) = %v", finance)
	}
}

func TestCredentialStore_Patch_ReplacesCiphertext(t *testing.T) {
	db := testDB(t)
	store := NewCredentialStore(db)

	c := &core.Credential{
		ID:                uuid.NewString(),
		UserID:            core.DefaultUserID,
		Title:             "WiFi",
		EncryptedPassword: "old-ciphertext",
	}
	if err := store.Create(c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	newCipher := "new-ciphertext"
	got, err := store.Patch(c.ID, core.DefaultUserID, core.CredentialPatch{Password: &newCipher})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if got.EncryptedPassword != newCipher {
		t.Errorf("EncryptedPassword = %q, want %q", got.EncryptedPassword, newCipher)
	}
}

func TestCredentialStore_Delete_NotFound(t *testing.T) {
	db := testDB(t)
	store := NewCredentialStore(db)

	err := store.Delete(uuid.NewString(), core.DefaultUserID)
	if !errors.Is(err, core.ErrCredentialNotFound) {
		t.Errorf("Delete() error = %v, want ErrCredentialNotFound", err)
	}
}

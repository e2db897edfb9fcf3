package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/codefixer/internal/apperror"
	"github.com/sakif/codefixer/internal/model"
)

// newTestDB opens a fresh in-memory database for one test.
// t.Cleanup closes it when the test (and all its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestCompletion saves a completion owned by ownerID and fails the
// test if it errors.
func createTestCompletion(t *testing.T, db *DB, ownerID, question, answer string) *model.Completion {
	t.Helper()
	c := &model.Completion{
		Question:   question,
		CodeAnswer: answer,
		Language:   "python",
		Kind:       "fix",
		UserID:     ownerID,
	}
	if err := db.Create(context.Background(), c); err != nil {
		t.Fatalf("failed to create test completion: %v", err)
	}
	return c
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	c := &model.Completion{
		Question:   "def f(): pass",
		CodeAnswer: "Looks correct.",
		Language:   "python",
		Kind:       "fix",
		UserID:     alice.ID,
	}
	if err := db.Create(context.Background(), c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if c.ID == 0 {
		t.Error("Create() did not set ID")
	}
	if c.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	found, err := db.GetByIDForOwner(context.Background(), c.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetByIDForOwner() error = %v", err)
	}
	if found.Question != "def f(): pass" {
		t.Errorf("Question = %q, want %q", found.Question, "def f(): pass")
	}
	if found.CodeAnswer != "Looks correct." {
		t.Errorf("CodeAnswer = %q, want %q", found.CodeAnswer, "Looks correct.")
	}
	if found.Language != "python" {
		t.Errorf("Language = %q, want %q", found.Language, "python")
	}
	if found.UserID != alice.ID {
		t.Errorf("UserID = %q, want %q", found.UserID, alice.ID)
	}
}

func TestCreate_IDsIncrease(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	first := createTestCompletion(t, db, alice.ID, "a", "1")
	second := createTestCompletion(t, db, alice.ID, "b", "2")

	if second.ID <= first.ID {
		t.Errorf("second ID %d should be greater than first ID %d", second.ID, first.ID)
	}
}

func TestCreate_IDsNotReusedAfterDelete(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	first := createTestCompletion(t, db, alice.ID, "a", "1")
	if err := db.DeleteForOwner(context.Background(), first.ID, alice.ID); err != nil {
		t.Fatalf("DeleteForOwner() error = %v", err)
	}
	second := createTestCompletion(t, db, alice.ID, "b", "2")

	if second.ID == first.ID {
		t.Errorf("ID %d was reused after delete", second.ID)
	}
}

func TestCreate_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)

	c := &model.Completion{Question: "q", CodeAnswer: "a", Language: "go", Kind: "fix", UserID: "no-such-user"}
	if err := db.Create(context.Background(), c); err == nil {
		t.Fatal("Create() should fail when the owner does not exist (foreign key)")
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListByOwner_Empty(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	list, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if list == nil {
		t.Error("ListByOwner() returned nil, want empty slice")
	}
	if len(list) != 0 {
		t.Errorf("ListByOwner() returned %d records, want 0", len(list))
	}
}

func TestListByOwner_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	createTestCompletion(t, db, alice.ID, "first", "1")
	createTestCompletion(t, db, alice.ID, "second", "2")
	createTestCompletion(t, db, alice.ID, "third", "3")

	list, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListByOwner() returned %d records, want 3", len(list))
	}

	want := []string{"third", "second", "first"}
	for i, w := range want {
		if list[i].Question != w {
			t.Errorf("list[%d].Question = %q, want %q", i, list[i].Question, w)
		}
	}
}

func TestListByOwner_OnlyOwnRecords(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	createTestCompletion(t, db, alice.ID, "alice-1", "a")
	createTestCompletion(t, db, bob.ID, "bob-1", "b")
	createTestCompletion(t, db, alice.ID, "alice-2", "a")

	list, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListByOwner() returned %d records, want 2", len(list))
	}
	for _, c := range list {
		if c.UserID != alice.ID {
			t.Errorf("ListByOwner() leaked record %d owned by %q", c.ID, c.UserID)
		}
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetByIDForOwner_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	c := createTestCompletion(t, db, alice.ID, "secret", "answer")

	_, err := db.GetByIDForOwner(context.Background(), c.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByIDForOwner() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteForOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	c := createTestCompletion(t, db, alice.ID, "q", "a")

	if err := db.DeleteForOwner(context.Background(), c.ID, alice.ID); err != nil {
		t.Fatalf("DeleteForOwner() error = %v", err)
	}

	_, err := db.GetByIDForOwner(context.Background(), c.ID, alice.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByIDForOwner() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteForOwner_NonexistentID(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	err := db.DeleteForOwner(context.Background(), 9999, alice.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteForOwner() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteForOwner_OtherOwnerLeavesRecord(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	c := createTestCompletion(t, db, alice.ID, "q", "a")

	err := db.DeleteForOwner(context.Background(), c.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("DeleteForOwner() by non-owner error = %v, want ErrNotFound", err)
	}

	list, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("alice has %d records after bob's delete attempt, want 1", len(list))
	}
}

// =========================================================================
// MIGRATION TESTS
// =========================================================================

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestMigrate_KindColumnDefault(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	_, err := db.conn.ExecContext(context.Background(),
		`INSERT INTO completions (question, code_answer, language, user_id) VALUES (?, ?, ?, ?)`,
		"q", "a", "go", alice.ID,
	)
	if err != nil {
		t.Fatalf("raw insert error = %v", err)
	}

	list, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(list) != 1 || list[0].Kind != "fix" {
		t.Errorf("kind default = %+v, want one record with kind fix", list)
	}
}

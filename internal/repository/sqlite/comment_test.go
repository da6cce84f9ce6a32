package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/quoter/internal/apperror"
)

func TestInsertComment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := createTestQuote(t, db, "a quote", "")
	u := createTestUser(t, db, "ada")

	c, err := db.InsertComment(ctx, "  nice one  ", q.ID, &u.ID)
	if err != nil {
		t.Fatalf("InsertComment() error = %v", err)
	}

	if c.ID <= 0 {
		t.Errorf("ID = %d, want > 0", c.ID)
	}
	if c.Text != "nice one" {
		t.Errorf("Text = %q, want trimmed %q", c.Text, "nice one")
	}
	if c.UserID == nil || *c.UserID != u.ID {
		t.Errorf("UserID = %v, want %d", c.UserID, u.ID)
	}
	if c.CreatedAt.IsZero() {
		t.Error("InsertComment() did not set CreatedAt")
	}
}

// TestInsertComment_MissingQuote checks that a comment on a quote that does
// not exist fails with NotFound and leaves no row behind.
func TestInsertComment_MissingQuote(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "ada")

	for _, quoteID := range []int64{0, 1, 42, 999999} {
		_, err := db.InsertComment(ctx, "orphan", quoteID, &u.ID)
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("InsertComment(quote=%d) error = %v, want ErrNotFound", quoteID, err)
		}
		if !apperror.IsNotFoundResource(err, "quote") {
			t.Errorf("InsertComment(quote=%d) error = %v, want NotFound for resource quote", quoteID, err)
		}
	}

	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count); err != nil {
		t.Fatalf("counting comments: %v", err)
	}
	if count != 0 {
		t.Errorf("comments table has %d rows, want 0", count)
	}
}

func TestInsertComment_UnknownAuthor(t *testing.T) {
	db := newTestDB(t)
	q := createTestQuote(t, db, "a quote", "")
	ghost := int64(12345)

	_, err := db.InsertComment(context.Background(), "boo", q.ID, &ghost)
	if !apperror.IsNotFoundResource(err, "user") {
		t.Errorf("InsertComment() error = %v, want NotFound for resource user", err)
	}
}

func TestInsertComment_NilAuthorStoredAsNull(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := createTestQuote(t, db, "a quote", "")

	c, err := db.InsertComment(ctx, "anonymous remark", q.ID, nil)
	if err != nil {
		t.Fatalf("InsertComment() error = %v", err)
	}

	var userID *int64
	if err := db.conn.QueryRowContext(ctx, `SELECT user_id FROM comments WHERE id = ?`, c.ID).Scan(&userID); err != nil {
		t.Fatalf("reading user_id: %v", err)
	}
	if userID != nil {
		t.Errorf("user_id = %d, want NULL", *userID)
	}
}

func TestInsertComment_EmptyText(t *testing.T) {
	db := newTestDB(t)
	q := createTestQuote(t, db, "a quote", "")

	_, err := db.InsertComment(context.Background(), "   ", q.ID, nil)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("InsertComment() error = %v, want ErrValidation", err)
	}
}

func TestListComments_OrderAndAuthors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := createTestQuote(t, db, "a quote", "")
	other := createTestQuote(t, db, "another quote", "")
	ada := createTestUser(t, db, "ada")
	bob := createTestUser(t, db, "bob")

	mustComment := func(text string, quoteID int64, author *int64) {
		t.Helper()
		if _, err := db.InsertComment(ctx, text, quoteID, author); err != nil {
			t.Fatalf("InsertComment(%q) error = %v", text, err)
		}
	}
	mustComment("first", q.ID, &ada.ID)
	mustComment("elsewhere", other.ID, &bob.ID)
	mustComment("second", q.ID, &bob.ID)
	mustComment("third", q.ID, nil)

	comments, err := db.ListComments(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("ListComments() returned %d comments, want 3", len(comments))
	}

	wantText := []string{"first", "second", "third"}
	for i, c := range comments {
		if c.Text != wantText[i] {
			t.Errorf("comment %d text = %q, want %q", i, c.Text, wantText[i])
		}
		if i > 0 && c.ID <= comments[i-1].ID {
			t.Errorf("comment ids not ascending: %d after %d", c.ID, comments[i-1].ID)
		}
		if c.LocalTime.IsZero() {
			t.Errorf("comment %d has no local time", i)
		}
	}

	if comments[0].AuthorName == nil || *comments[0].AuthorName != "ada" {
		t.Errorf("comment 0 author = %v, want ada", comments[0].AuthorName)
	}
	if comments[1].AuthorName == nil || *comments[1].AuthorName != "bob" {
		t.Errorf("comment 1 author = %v, want bob", comments[1].AuthorName)
	}
	if comments[2].AuthorName != nil {
		t.Errorf("comment 2 author = %q, want nil", *comments[2].AuthorName)
	}
}

// TestListComments_DeletedAuthor removes an author row directly and checks the
// LEFT JOIN still returns the comment with a nil name.
func TestListComments_DeletedAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := createTestQuote(t, db, "a quote", "")
	u := createTestUser(t, db, "leaver")

	if _, err := db.InsertComment(ctx, "still here", q.ID, &u.ID); err != nil {
		t.Fatalf("InsertComment() error = %v", err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID); err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	comments, err := db.ListComments(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("ListComments() returned %d comments, want 1", len(comments))
	}
	if comments[0].AuthorName != nil {
		t.Errorf("AuthorName = %q, want nil", *comments[0].AuthorName)
	}
}

func TestListComments_UnknownQuoteIsEmpty(t *testing.T) {
	db := newTestDB(t)

	comments, err := db.ListComments(context.Background(), 999999)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("ListComments() returned %d comments, want 0", len(comments))
	}
}

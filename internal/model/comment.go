package model

import "time"

// Comment is a remark attached to a quote.
//
// WHY *int64 FOR UserID?
// A pointer lets us represent SQL NULL. The column is nullable so that a
// comment whose author row is missing still lists (with no author name)
// instead of breaking the whole page. New comments always carry an author:
// the service layer requires sign-in before commenting.
type Comment struct {
	ID        int64     `json:"id"        db:"id"`
	QuoteID   int64     `json:"quoteId"   db:"quote_id"`
	UserID    *int64    `json:"userId"    db:"user_id"`
	Text      string    `json:"text"      db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CommentView is a comment as shown on a quote page: the comment itself,
// the author's display name (nil when the author is unknown) and the
// creation time converted to the server's local time zone.
type CommentView struct {
	Comment
	AuthorName *string   `json:"authorName"`
	LocalTime  time.Time `json:"localTime"`
}

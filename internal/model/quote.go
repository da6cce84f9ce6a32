package model

import "time"

// Quote is a quotation posted to the feed.
// Quotes are displayed in creation order, which is ascending ID order.
type Quote struct {
	ID          int64     `json:"id"          db:"id"`
	Text        string    `json:"text"        db:"text"`
	Attribution string    `json:"attribution" db:"attribution"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// ImageSlot picks one of the 13 background images the stylesheet defines
// for quote cards.
func (q Quote) ImageSlot() int64 {
	return q.ID % 13
}

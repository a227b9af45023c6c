package entity

import "time"

// Blog is a post owned by exactly one author. The author is fixed at
// creation time and never reassigned.
type Blog struct {
	ID        string
	Title     string
	Content   string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlogSharing is one grant in the sharing ledger: Owner (the blog's
// author) allows SharedWith to read Blog. Grants are append-only; there
// is no revoke operation.
type BlogSharing struct {
	ID         string
	OwnerID    string
	SharedWith string
	BlogID     string
	CreatedAt  time.Time
}

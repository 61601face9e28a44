package domain

import "time"

// Group clusters book records believed to be the same work.
// A book with no group is reported as a singleton with an empty GID.
type Group struct {
	GID     string   `json:"gid"`
	BookIDs []string `json:"book_ids"`
}

// IsSingleton reports whether the book has no assigned group.
func (g *Group) IsSingleton() bool {
	return g.GID == ""
}

// GroupInfo is a stored group row.
type GroupInfo struct {
	GID       string    `json:"gid"`
	CreatedAt time.Time `json:"created_at"`
}

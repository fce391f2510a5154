package model

// Comment belongs to exactly one post and one author.
// AuthorName and AuthorEmail come from a JOIN on users.
type Comment struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	AuthorID    int64  `json:"authorId"`
	PostID      int64  `json:"postId"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"-"`
}

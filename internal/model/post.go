package model

// DateLayout is the display format of BlogPost.Date, e.g. "October 18, 2026".
const DateLayout = "January 02, 2006"

// BlogPost is a single article. Only the admin writes posts.
//
// Date is a display string, not a timestamp, so posts are ordered by ID
// (insertion order) rather than by date.
//
// AuthorName is not a column on blog_posts: the repository fills it from a
// JOIN on users so templates can show "Posted by ..." without a second query.
type BlogPost struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Body       string `json:"body"`
	ImgURL     string `json:"imgUrl"`
	Date       string `json:"date"`
	AuthorID   int64  `json:"authorId"`
	AuthorName string `json:"authorName"`
}

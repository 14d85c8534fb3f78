package model

// Post is a single blog entry. IDs are 1-based and kept contiguous by delete.
type Post struct {
	ID      int    `json:"id" form:"-" bson:"id" dynamodbav:"id" db:"id"`
	Author  string `json:"author" form:"author" bson:"author" dynamodbav:"author" db:"author"`
	Title   string `json:"title" form:"title" bson:"title" dynamodbav:"title" db:"title"`
	Content string `json:"content" form:"content" bson:"content" dynamodbav:"content" db:"content"`
}

// SeedPosts returns the posts a fresh collection starts with.
func SeedPosts() []Post {
	return []Post{
		{ID: 1, Author: "John Doe", Title: "First Post", Content: "This is my first post."},
		{ID: 2, Author: "Jane Doe", Title: "Second Post", Content: "This is another post."},
	}
}

// NextID is the id handed to an appended post. It does not look at existing
// ids, so a collection with gaps or duplicates can produce a collision.
func NextID(posts []Post) int {
	return len(posts) + 1
}

// Find returns the index of the first post with the given id, or -1.
func Find(posts []Post, id int) int {
	for i, post := range posts {
		if post.ID == id {
			return i
		}
	}
	return -1
}

// RemoveAndRenumber drops every post with the given id and reassigns ids
// 1..N to the rest, keeping their order. The input slice is not modified.
func RemoveAndRenumber(posts []Post, id int) []Post {
	remaining := make([]Post, 0, len(posts))
	for _, post := range posts {
		if post.ID != id {
			remaining = append(remaining, post)
		}
	}
	for i := range remaining {
		remaining[i].ID = i + 1
	}
	return remaining
}

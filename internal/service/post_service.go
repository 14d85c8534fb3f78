package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/klass-lk/postboard/internal/model"
	"github.com/klass-lk/postboard/internal/store"
)

var ErrPostNotFound = errors.New("post not found")

// PostService runs each operation as one load, transform, save cycle against
// the store. Concurrent calls are not coordinated; the last save wins.
type PostService struct {
	store store.Store
}

func NewPostService(store store.Store) *PostService {
	return &PostService{
		store: store,
	}
}

func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id int) (model.Post, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return model.Post{}, err
	}

	i := model.Find(posts, id)
	if i < 0 {
		return model.Post{}, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	return posts[i], nil
}

// Create appends a post with id len+1 and returns it.
func (s *PostService) Create(ctx context.Context, author, title, content string) (model.Post, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return model.Post{}, err
	}

	post := model.Post{
		ID:      model.NextID(posts),
		Author:  author,
		Title:   title,
		Content: content,
	}
	posts = append(posts, post)

	if err := s.store.Save(ctx, posts); err != nil {
		return model.Post{}, fmt.Errorf("failed to save posts: %w", err)
	}
	return post, nil
}

// Delete removes the post and renumbers the rest 1..N, so every post after
// the deleted one changes id. An unknown id is not an error.
func (s *PostService) Delete(ctx context.Context, id int) error {
	posts, err := s.List(ctx)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, model.RemoveAndRenumber(posts, id)); err != nil {
		return fmt.Errorf("failed to save posts: %w", err)
	}
	return nil
}

// Update overwrites all three fields, blank or not. Nothing is saved when
// the id is unknown.
func (s *PostService) Update(ctx context.Context, id int, author, title, content string) (model.Post, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return model.Post{}, err
	}

	i := model.Find(posts, id)
	if i < 0 {
		return model.Post{}, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}

	posts[i].Author = author
	posts[i].Title = title
	posts[i].Content = content

	if err := s.store.Save(ctx, posts); err != nil {
		return model.Post{}, fmt.Errorf("failed to save posts: %w", err)
	}
	return posts[i], nil
}

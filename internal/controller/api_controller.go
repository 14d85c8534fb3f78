package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
	"github.com/klass-lk/postboard/internal/service"
)

var ErrPostNotFound = postboard.ApiError{
	Status:    http.StatusNotFound,
	ErrorCode: "POST_NOT_FOUND",
	Message:   "post %s not found",
}

type PostRequest struct {
	Author  string `json:"author"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type EmptyResponse struct{}

// ApiController exposes the same operations as JSON.
type ApiController struct {
	postService *service.PostService
}

func NewApiController(postService *service.PostService) *ApiController {
	return &ApiController{
		postService: postService,
	}
}

func (c *ApiController) Register(group *postboard.ControllerGroup) {
	group.GET("", c.GetPosts)
	group.GET("/:id", c.GetPost)
	group.POST("", c.CreatePost)
	group.PUT("/:id", c.UpdatePost)
	group.DELETE("/:id", c.DeletePost)
}

func (c *ApiController) GetPosts(ctx *postboard.Context) ([]model.Post, error) {
	return c.postService.List(ctx.Request.Context())
}

func (c *ApiController) GetPost(ctx *postboard.Context) (model.Post, error) {
	id, err := ctx.ParamInt("id")
	if err != nil {
		return model.Post{}, err
	}

	post, err := c.postService.Get(ctx.Request.Context(), id)
	return post, notFound(err, id)
}

func (c *ApiController) CreatePost(ctx *postboard.Context, request PostRequest) (model.Post, error) {
	return c.postService.Create(ctx.Request.Context(), request.Author, request.Title, request.Content)
}

func (c *ApiController) UpdatePost(ctx *postboard.Context, request PostRequest) (model.Post, error) {
	id, err := ctx.ParamInt("id")
	if err != nil {
		return model.Post{}, err
	}

	post, err := c.postService.Update(ctx.Request.Context(), id, request.Author, request.Title, request.Content)
	return post, notFound(err, id)
}

func (c *ApiController) DeletePost(ctx *postboard.Context) (EmptyResponse, error) {
	id, err := ctx.ParamInt("id")
	if err != nil {
		return EmptyResponse{}, err
	}
	return EmptyResponse{}, c.postService.Delete(ctx.Request.Context(), id)
}

func notFound(err error, id int) error {
	if errors.Is(err, service.ErrPostNotFound) {
		return ErrPostNotFound.New(strconv.Itoa(id))
	}
	return err
}

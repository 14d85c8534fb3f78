package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/service"
	"github.com/klass-lk/postboard/internal/view"
)

// PostController serves the HTML pages.
type PostController struct {
	postService *service.PostService
}

func NewPostController(postService *service.PostService) *PostController {
	return &PostController{
		postService: postService,
	}
}

func (c *PostController) Register(group *postboard.ControllerGroup) {
	group.GET("/", c.Index)
	group.GET("/add", c.AddForm)
	group.POST("/add", c.Add)
	group.GET("/delete/:id", c.Delete)
	group.GET("/update/:id", c.UpdateForm)
	group.POST("/update/:id", c.Update)
}

func (c *PostController) Index(ctx *postboard.Context) {
	posts, err := c.postService.List(ctx.Request.Context())
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	ctx.HTML(http.StatusOK, view.IndexPage, gin.H{"posts": posts})
}

func (c *PostController) AddForm(ctx *postboard.Context) {
	ctx.HTML(http.StatusOK, view.AddPage, nil)
}

// Add stores the form fields as given; absent fields become empty strings.
func (c *PostController) Add(ctx *postboard.Context) {
	_, err := c.postService.Create(ctx.Request.Context(),
		ctx.PostForm("author"),
		ctx.PostForm("title"),
		ctx.PostForm("content"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (c *PostController) Delete(ctx *postboard.Context) {
	id, err := ctx.ParamInt("id")
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	if err := c.postService.Delete(ctx.Request.Context(), id); err != nil {
		c.renderError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (c *PostController) UpdateForm(ctx *postboard.Context) {
	id, err := ctx.ParamInt("id")
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	post, err := c.postService.Get(ctx.Request.Context(), id)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	ctx.HTML(http.StatusOK, view.UpdatePage, gin.H{"post": post})
}

func (c *PostController) Update(ctx *postboard.Context) {
	id, err := ctx.ParamInt("id")
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	_, err = c.postService.Update(ctx.Request.Context(), id,
		ctx.PostForm("author"),
		ctx.PostForm("title"),
		ctx.PostForm("content"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (c *PostController) renderError(ctx *postboard.Context, err error) {
	_ = ctx.Error(err)

	var apiErr postboard.ApiError
	if errors.Is(err, service.ErrPostNotFound) || (errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound) {
		ctx.HTML(http.StatusNotFound, view.NotFoundPage, gin.H{"message": "Post not found"})
		return
	}
	ctx.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

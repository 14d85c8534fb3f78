package controller

import (
	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/service"
	"github.com/klass-lk/postboard/internal/view"
)

// Register installs the page templates and mounts every controller.
func Register(server *postboard.Server, postService *service.PostService) error {
	tmpl, err := view.Templates()
	if err != nil {
		return err
	}
	server.SetHTMLTemplate(tmpl)

	server.RegisterController("", NewPostController(postService))
	server.RegisterController("/api/posts", NewApiController(postService))
	server.RegisterController("/healthz", NewHealthController())
	return nil
}

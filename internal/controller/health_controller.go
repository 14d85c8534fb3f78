package controller

import "github.com/klass-lk/postboard"

type HealthResponse struct {
	Status string `json:"status"`
}

type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

func (c *HealthController) Register(group *postboard.ControllerGroup) {
	group.GET("", c.Health)
}

func (c *HealthController) Health() (HealthResponse, error) {
	return HealthResponse{Status: "ok"}, nil
}

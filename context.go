package postboard

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type Context struct {
	*gin.Context
}

func NewContext(c *gin.Context) *Context {
	return &Context{
		Context: c,
	}
}

// GetRequest binds the body (or form/query) into request according to the
// content type.
func (c *Context) GetRequest(request interface{}) error {
	if err := c.ShouldBind(request); err != nil {
		return ErrBadRequest.New("bad request: " + err.Error())
	}
	return nil
}

// ParamInt parses a path parameter made of decimal digits only. Signs and
// anything else name no resource, so they are reported as not found.
func (c *Context) ParamInt(name string) (int, error) {
	value := c.Param(name)
	if !isDigits(value) {
		return 0, ErrNotFound.New(name + " " + strconv.Quote(value) + " is not an integer")
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, ErrNotFound.New(name + " " + strconv.Quote(value) + " is not an integer")
	}
	return n, nil
}

func (c *Context) RequestID() string {
	return c.GetString("request_id")
}

func (c *Context) SendError(err error) {
	SendError(c.Context, err)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

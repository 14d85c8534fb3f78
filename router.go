package postboard

import (
	"fmt"
	"net/http"
	"path"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Controller registers its routes on the group it is mounted under.
type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group *gin.RouterGroup
}

func (s *Server) Group(relativePath string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group: s.engine.Group(path.Join("/", s.basePath, relativePath), middleware...),
	}
}

func (s *Server) RegisterController(relativePath string, controller Controller) {
	controller.Register(s.Group(relativePath))
}

func (g *ControllerGroup) Group(relativePath string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group: g.group.Group(relativePath, middleware...),
	}
}

func (g *ControllerGroup) Use(middleware ...gin.HandlerFunc) {
	g.group.Use(middleware...)
}

func (g *ControllerGroup) GET(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodGet, relativePath, handler, middleware)
}

func (g *ControllerGroup) POST(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPost, relativePath, handler, middleware)
}

func (g *ControllerGroup) PUT(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPut, relativePath, handler, middleware)
}

func (g *ControllerGroup) DELETE(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, relativePath, handler, middleware)
}

func (g *ControllerGroup) PATCH(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPatch, relativePath, handler, middleware)
}

func (g *ControllerGroup) OPTIONS(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodOptions, relativePath, handler, middleware)
}

func (g *ControllerGroup) HEAD(relativePath string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodHead, relativePath, handler, middleware)
}

func (g *ControllerGroup) handle(method, relativePath string, handler interface{}, middleware []gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middleware...)
	handlers = append(handlers, wrapHandler(handler))
	g.group.Handle(method, relativePath, handlers...)
}

var (
	contextType = reflect.TypeOf((*Context)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// wrapHandler adapts the handler shapes a controller may register:
//
//	gin.HandlerFunc / func(*gin.Context)
//	func(*Context)
//	func() (T, error)
//	func(*Context) (T, error)
//	func(Req) (T, error)
//	func(*Context, Req) (T, error)
//
// Req is bound from the JSON body. A string result is written as plain text,
// anything else as JSON. Other shapes panic at registration.
func wrapHandler(handler interface{}) gin.HandlerFunc {
	switch h := handler.(type) {
	case gin.HandlerFunc:
		return h
	case func(*gin.Context):
		return h
	case func(*Context):
		return func(c *gin.Context) {
			h(NewContext(c))
		}
	}

	fn := reflect.ValueOf(handler)
	typ := fn.Type()
	if typ.Kind() != reflect.Func {
		panic(fmt.Sprintf("handler must be a function, got %T", handler))
	}
	if typ.NumOut() != 2 || !typ.Out(1).Implements(errorType) {
		panic(fmt.Sprintf("handler %T must return (T, error)", handler))
	}

	withContext := false
	var requestType reflect.Type
	switch typ.NumIn() {
	case 0:
	case 1:
		if typ.In(0) == contextType {
			withContext = true
		} else {
			requestType = typ.In(0)
		}
	case 2:
		if typ.In(0) != contextType {
			panic(fmt.Sprintf("handler %T: first argument must be *Context", handler))
		}
		withContext = true
		requestType = typ.In(1)
	default:
		panic(fmt.Sprintf("handler %T takes too many arguments", handler))
	}

	return func(c *gin.Context) {
		ctx := NewContext(c)

		var args []reflect.Value
		if withContext {
			args = append(args, reflect.ValueOf(ctx))
		}
		if requestType != nil {
			request := reflect.New(requestType)
			if err := c.ShouldBindJSON(request.Interface()); err != nil {
				SendError(c, ErrBadRequest.New("bad request: "+err.Error()))
				return
			}
			args = append(args, request.Elem())
		}

		results := fn.Call(args)
		if errValue := results[1]; !errValue.IsNil() {
			SendError(c, errValue.Interface().(error))
			return
		}

		if c.Writer.Written() {
			return
		}
		if s, ok := results[0].Interface().(string); ok {
			c.String(http.StatusOK, s)
			return
		}
		c.JSON(http.StatusOK, results[0].Interface())
	}
}

package postboard

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

type Runtime string

const (
	RuntimeLambda Runtime = "lambda"
	RuntimeHTTP   Runtime = "http"
)

type Server struct {
	engine     *gin.Engine
	runtime    Runtime
	host       string
	basePath   string
	corsConfig *cors.Config
}

func New() *Server {
	runtime := RuntimeHTTP
	if os.Getenv("LAMBDA_RUNTIME") == "true" {
		runtime = RuntimeLambda
	}

	engine := gin.Default()
	engine.Use(RequestID())

	return &Server{
		engine:  engine,
		runtime: runtime,
		host:    "0.0.0.0",
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetBasePath prefixes every group created afterwards.
func (s *Server) SetBasePath(path string) {
	s.basePath = path
}

// SetHost sets the interface the HTTP runtime binds to. Empty means all interfaces.
func (s *Server) SetHost(host string) {
	s.host = host
}

func (s *Server) SetRuntime(runtime Runtime) {
	s.runtime = runtime
}

func (s *Server) SetHTMLTemplate(tmpl *template.Template) {
	s.engine.SetHTMLTemplate(tmpl)
}

func (s *Server) Start(port int) error {
	if s.runtime == RuntimeLambda {
		return s.startLambda()
	}
	return s.startHTTP(port)
}

func (s *Server) startHTTP(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	addr := fmt.Sprintf("%s:%d", s.host, port)
	return s.engine.Run(addr)
}

func (s *Server) startLambda() error {
	ginLambda := ginadapter.New(s.engine)

	handler := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return ginLambda.ProxyWithContext(ctx, req)
	}

	lambda.Start(handler)
	return nil
}

func (s *Server) WithCORS(config *cors.Config) *Server {
	s.corsConfig = config
	s.engine.Use(cors.New(*config))
	return s
}

func (s *Server) DefaultCORS() *Server {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.MaxAge = 12 * time.Hour
	return s.WithCORS(&config)
}

func (s *Server) CustomCORS(allowOrigins []string, allowMethods []string, allowHeaders []string, maxAge time.Duration) *Server {
	config := cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: allowMethods,
		AllowHeaders: allowHeaders,
		MaxAge:       maxAge,
	}
	return s.WithCORS(&config)
}

func (s *Server) WithSecureHeaders(config secure.Config) *Server {
	s.engine.Use(secure.New(config))
	return s
}

// DefaultSecureHeaders sets the browser hardening headers. HSTS and the TLS
// redirect are left to whatever terminates TLS in front of the server.
func (s *Server) DefaultSecureHeaders() *Server {
	return s.WithSecureHeaders(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})
}

package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/pkg/config"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/metrics"
	"github.com/sirosfoundation/go-http-provider/pkg/middleware"
)

const maxUploadFiles = 5

type endpointDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	limiter   *middleware.RateLimiter
	collector *metrics.Collector
}

// sampleError is returned by /fail to exercise error translation.
type sampleError struct{}

func (sampleError) Error() string { return "this endpoint always fails" }
func (sampleError) Name() string  { return "SampleError" }

// sampleEndpoints returns the routes served by the binary. Rate limiting
// applies to every route except metrics; /me is only served with a JWT
// secret and metrics only when enabled.
func sampleEndpoints(d endpointDeps) []httpprovider.EndpointOptions {
	var common []httpprovider.Middleware
	if d.cfg.RateLimit.Enabled && d.limiter != nil {
		common = append(common, middleware.RateLimitMiddleware(d.limiter))
	}
	with := func(extra ...httpprovider.Middleware) []httpprovider.Middleware {
		return append(append([]httpprovider.Middleware(nil), common...), extra...)
	}

	endpoints := []httpprovider.EndpointOptions{
		{Type: httpprovider.MethodGet, URI: "/hello", Middleware: with(), Handler: hello},
		{Type: httpprovider.MethodGet, URI: "/hello/:name", Middleware: with(), Handler: greet},
		{Type: httpprovider.MethodGet, URI: "/query", Middleware: with(), Handler: query},
		{Type: httpprovider.MethodPost, URI: "/echo", Middleware: with(), Handler: echo},
		{Type: httpprovider.MethodGet, URI: "/negotiate", Middleware: with(), Handler: negotiate},
		{Type: httpprovider.MethodAll, URI: "/fail", Middleware: with(), Handler: fail},
		{
			Type:            httpprovider.MethodPost,
			URI:             "/upload",
			Middleware:      with(),
			Handler:         upload,
			Files:           []httpprovider.FileOption{httpprovider.FileArray("files", maxUploadFiles)},
			FileDestination: d.cfg.Provider.UploadDir,
		},
	}

	if d.cfg.JWT.Secret != "" {
		endpoints = append(endpoints, httpprovider.EndpointOptions{
			Type:       httpprovider.MethodGet,
			URI:        "/me",
			Middleware: with(middleware.JWT(d.cfg.JWT, d.logger)),
			Handler:    me,
		})
	}

	if d.collector != nil {
		var guard []httpprovider.Middleware
		if d.cfg.Server.AdminToken != "" {
			guard = append(guard, middleware.BearerToken(d.cfg.Server.AdminToken, d.logger))
		}
		endpoints = append(endpoints, d.collector.Endpoint(d.cfg.Metrics.Path, guard...))
	}

	return endpoints
}

func hello(_ httpprovider.Request, res httpprovider.Response) error {
	res.Send("hello world")
	return nil
}

func greet(req httpprovider.Request, res httpprovider.Response) error {
	res.JSON(map[string]string{"hello": req.Param("name")})
	return nil
}

func query(req httpprovider.Request, res httpprovider.Response) error {
	res.JSON(req.QueryParams())
	return nil
}

func echo(req httpprovider.Request, res httpprovider.Response) error {
	res.JSON(map[string]any{
		"path": req.Path(),
		"body": req.Body(),
	})
	return nil
}

func negotiate(req httpprovider.Request, res httpprovider.Response) error {
	offer, ok := req.Accepts("json", "html", "txt")
	switch {
	case !ok:
		res.Status(http.StatusNotAcceptable).Send("Not Acceptable")
	case offer == "json":
		res.JSON(map[string]string{"message": "hello"})
	case offer == "html":
		res.Send("<p>hello</p>")
	default:
		res.ContentType("txt").Send("hello")
	}
	return nil
}

func fail(httpprovider.Request, httpprovider.Response) error {
	return sampleError{}
}

type uploadSummary struct {
	Field    string `json:"field"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
}

func upload(req httpprovider.Request, res httpprovider.Response) error {
	files := req.Files("files")
	out := make([]uploadSummary, 0, len(files))
	for _, f := range files {
		out = append(out, uploadSummary{
			Field:    f.FieldName,
			Name:     f.OriginalName,
			MimeType: f.MimeType,
			Size:     f.Size,
		})
	}
	res.JSON(map[string]any{
		"files":  out,
		"fields": req.Body(),
	})
	return nil
}

func me(req httpprovider.Request, res httpprovider.Response) error {
	userID, _ := middleware.UserID(req)
	res.JSON(map[string]string{"user_id": userID})
	return nil
}

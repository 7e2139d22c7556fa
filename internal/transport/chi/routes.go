package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SearchParams are the query parameters of GET /api/search/{api_key}.
type SearchParams struct {
	// Q is the search term; required, at least one character.
	Q string `form:"q" json:"q"`
	// Species is an NCBI taxon id forwarded to organism-bound parameters.
	Species *string `form:"species,omitempty" json:"species,omitempty"`
}

// ServerInterface lists the HTTP operations of the service.
type ServerInterface interface {
	// GET /
	GetIndex(w http.ResponseWriter, r *http.Request)
	// GET /api/schema
	GetSchema(w http.ResponseWriter, r *http.Request)
	// GET /api/schema/check-update
	CheckSchemaUpdate(w http.ResponseWriter, r *http.Request)
	// GET /api/search/{api_key}
	SearchAPI(w http.ResponseWriter, r *http.Request, apiKey string, params SearchParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ParamError reports a request parameter that failed to bind or validate.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds request parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// SearchAPI binds api_key, q and species.
func (siw *ServerInterfaceWrapper) SearchAPI(w http.ResponseWriter, r *http.Request) {
	var apiKey string
	err := runtime.BindStyledParameterWithOptions("simple", "api_key", chi.URLParam(r, "api_key"), &apiKey,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &ParamError{Param: "api_key", Err: err})
		return
	}

	var params SearchParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &ParamError{Param: "q", Err: err})
		return
	}
	if params.Q == "" {
		siw.ErrorHandlerFunc(w, r, &ParamError{Param: "q", Err: errEmptyQuery})
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "species", query, &params.Species); err != nil {
		siw.ErrorHandlerFunc(w, r, &ParamError{Param: "species", Err: err})
		return
	}

	siw.Handler.SearchAPI(w, r, apiKey, params)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on options.BaseRouter (a new router when nil).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := &ServerInterfaceWrapper{Handler: si, ErrorHandlerFunc: options.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Use(options.Middlewares...)
		r.Get("/", si.GetIndex)
		r.Get("/api/schema", si.GetSchema)
		r.Get("/api/schema/check-update", si.CheckSchemaUpdate)
		r.Get("/api/search/{api_key}", wrapper.SearchAPI)
		r.Get("/health", si.HealthCheck)
		r.Get("/metrics", si.Metrics)
	})
	return r
}

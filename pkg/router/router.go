package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"runtime"

	"github.com/go-chi/chi/v5"
)

var DefaultError = JsonError{
	Code: http.StatusInternalServerError,
	Err:  "Internal Server Error",
}

// Router is a wrapper around chi.Router that provides error handling.
// Handlers can return an error that will then get mapped to an error response.
// Error mappers can be registered for specific errors to provide custom error responses.
type Router struct {
	chi.Router
	*errorHandling
}

// errorHandling is shared between a router and the sub routers created from it.
type errorHandling struct {
	errorMappers []errorMapping
	defaultError JsonError
	logger       *slog.Logger
}

type errorMapping struct {
	target error
	fn     ErrorMapper
}

func New(opts ...RouterOption) *Router {
	r := &Router{
		Router: chi.NewRouter(),
		errorHandling: &errorHandling{
			defaultError: DefaultError,
			logger:       slog.Default(),
		},
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

type RouterOption func(*Router)

func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

func WithDefaultError(err JsonError) RouterOption {
	return func(r *Router) {
		r.defaultError = err
	}
}

func (a *Router) sub(r chi.Router) *Router {
	return &Router{Router: r, errorHandling: a.errorHandling}
}

// HandlerFunc is a function that handles an HTTP request and returns an error.
// When the handler fails to handle the request it should not write anything to the response writer,
// instead it should return an error that will be mapped to an error response.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

type Middleware func(http.Handler) HandlerFunc

// ErrorMapper is a function that maps go errors to API errors.
type ErrorMapper func(error) Error

// RegisterErrorMapper registers fn for every error that matches err with errors.Is.
// Mappers are tried in registration order.
func (a *Router) RegisterErrorMapper(err error, fn ErrorMapper) {
	a.errorMappers = append(a.errorMappers, errorMapping{target: err, fn: fn})
}

// mapError maps a go error to an API error.
// The mapping works as following:
//   - if the error is already an API error it will be returned as is.
//   - if the error matches a registered error it is mapped by its mapper.
//   - otherwise the default error is returned.
func (a *Router) mapError(err error) Error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	for _, m := range a.errorMappers {
		if errors.Is(err, m.target) {
			return m.fn(err)
		}
	}
	return a.defaultError
}

func (a *Router) handleWithErr(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		resError := a.mapError(err)
		handlerFn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
		level := slog.LevelInfo
		if resError.StatusCode() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		a.logger.Log(r.Context(), level, err.Error(),
			slog.String("handler", handlerFn.Name()),
			slog.Int("status", resError.StatusCode()))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resError.StatusCode())
		if err := resError.Encode(w); err != nil {
			a.logger.ErrorContext(r.Context(), "encoding error response", slog.String("error", err.Error()))
		}
	}
}

// WriteJson writes v as a JSON response with the given status code.
func WriteJson(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func (a *Router) Get(path string, h HandlerFunc) {
	a.Router.Get(path, a.handleWithErr(h))
}

func (a *Router) Post(path string, h HandlerFunc) {
	a.Router.Post(path, a.handleWithErr(h))
}

func (a *Router) Put(path string, h HandlerFunc) {
	a.Router.Put(path, a.handleWithErr(h))
}

func (a *Router) Delete(path string, h HandlerFunc) {
	a.Router.Delete(path, a.handleWithErr(h))
}

func (a *Router) Route(path string, f func(r *Router)) {
	a.Router.Route(path, func(r chi.Router) {
		f(a.sub(r))
	})
}

func (a *Router) Group(f func(r *Router)) *Router {
	ch := a.Router.Group(func(r chi.Router) {
		f(a.sub(r))
	})
	return a.sub(ch)
}

func (a *Router) Use(middleware Middleware) {
	a.Router.Use(func(h http.Handler) http.Handler {
		return a.handleWithErr(middleware(h))
	})
}

func (a *Router) With(middleware Middleware) *Router {
	ch := a.Router.With(func(h http.Handler) http.Handler {
		return a.handleWithErr(middleware(h))
	})
	return a.sub(ch)
}

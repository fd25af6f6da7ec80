package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	httpServer *http.Server
	Router     *chi.Mux
}

func NewServer(port string) *Server {
	router := chi.NewRouter()

	serv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return &Server{
		httpServer: serv,
		Router:     router,
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// RegisterSwagger instance совпадает с InfoInstanceName пакета docs
func (s *Server) RegisterSwagger(host, instance string) {
	s.Router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://"+host+"/swagger/doc.json"),
		httpSwagger.InstanceName(instance),
	))
}

func (s *Server) RegisterMetrics(handler http.Handler) {
	s.Router.Method(http.MethodGet, "/metrics", handler)
}

func (s *Server) RegisterHealth() {
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server 本地查询 HTTP 服务器
type Server struct {
	srv     *http.Server
	ln      net.Listener
	baseURL string
}

// Start 启动查询服务
func Start(api *API, listenAddr string) (*Server, error) {
	if listenAddr == "" {
		listenAddr = "127.0.0.1:21315"
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	api.RegisterRoutes(r)

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s := &Server{
		srv:     srv,
		ln:      ln,
		baseURL: "http://" + ln.Addr().String(),
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP 服务异常退出", "error", err)
		}
	}()

	slog.Info("查询服务已启动", "addr", s.baseURL)
	return s, nil
}

// BaseURL 服务地址
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// corsMiddleware 看板是本地静态页面，跨域全放行（与旧版行为一致）
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

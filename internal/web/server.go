package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/refset/churnform/internal/churn"
	"github.com/refset/churnform/internal/config"
	"github.com/refset/churnform/internal/lottie"
	"github.com/refset/churnform/internal/metrics"
)

//go:embed templates/*
var templates embed.FS

// Server renders the churn prediction page
type Server struct {
	cfg        *config.Config
	router     *chi.Mux
	tmpl       *template.Template
	predictor  *churn.Predictor
	animations lottie.Set
	presenter  *presenter
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New creates the page server. The predictor and animations are built once
// at startup and only read afterwards. m may be nil.
func New(cfg *config.Config, predictor *churn.Predictor, animations lottie.Set, logger *zap.Logger, m *metrics.Metrics) (*Server, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		tmpl:       tmpl,
		predictor:  predictor,
		animations: animations,
		presenter:  newPresenter(animations.Fireworks.Present()),
		metrics:    m,
		logger:     logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.accessLog)

	s.router.Get("/", s.handleIndex)
	s.router.Post("/", s.handlePredict)
	if m != nil && cfg.Metrics.Enabled {
		s.router.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting churn predictor", zap.String("addr", s.cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type headerView struct {
	Gunfire       bool
	Satisfaction  bool
	Chatbot       bool
	FallbackImage string
}

type pageData struct {
	Title      string
	Icon       string
	Snow       bool
	Header     headerView
	Animations map[string]json.RawMessage
	Form       formView
	Result     *resultView
}

// page builds the template data. snow is only set for a fresh visit or a
// retain result.
func (s *Server) page(form formView, result *resultView, snow bool) pageData {
	anims := map[string]json.RawMessage{}
	for name, m := range map[string]lottie.Maybe{
		lottie.AssetGunfire:      s.animations.Gunfire,
		lottie.AssetSatisfaction: s.animations.Satisfaction,
		lottie.AssetChatbot:      s.animations.Chatbot,
		lottie.AssetFireworks:    s.animations.Fireworks,
	} {
		if a, ok := m.Get(); ok {
			anims[name] = a.Payload
		}
	}

	data := pageData{
		Title: s.cfg.Page.Title,
		Icon:  s.cfg.Page.Icon,
		Snow:  snow,
		Header: headerView{
			Gunfire:       s.animations.Gunfire.Present(),
			Satisfaction:  s.animations.Satisfaction.Present(),
			Chatbot:       s.animations.Chatbot.Present(),
			FallbackImage: s.cfg.Assets.FallbackImageURL,
		},
		Animations: anims,
		Form:       form,
		Result:     result,
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.page(newFormView(churn.DefaultRecord()), nil, s.cfg.Page.SnowOnEntry))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	record, form, err := decodeForm(r)
	if err != nil {
		if !errors.Is(err, errInvalidForm) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Warn("rejected submission", zap.Any("errors", form.Errors))
		s.render(w, http.StatusUnprocessableEntity, s.page(form, nil, false))
		return
	}

	id := uuid.NewString()
	pred, err := s.predictor.Predict(record)
	if err != nil {
		s.logger.Error("prediction failed", zap.String("submission", id), zap.Error(err))
		http.Error(w, "prediction failed", http.StatusInternalServerError)
		return
	}

	s.logger.Info("prediction",
		zap.String("submission", id),
		zap.Float64s("features", pred.Features[:]),
		zap.Float64("label", pred.Label),
		zap.Stringer("outcome", pred.Outcome))
	if s.metrics != nil {
		s.metrics.Predicted(pred.Outcome.String())
	}

	result := s.presenter.present(id, pred)
	s.render(w, http.StatusOK, s.page(form, result, result.Snow))
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("render page", zap.Error(err))
		http.Error(w, "render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

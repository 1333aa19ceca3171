package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/auth"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/service"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/store"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Logger       *zap.Logger
	Addr         string
	VitalService *service.VitalService
	Sessions     *auth.Manager
	DB           Pinger // optional; /healthz reports ok without it
}

type Server struct {
	httpServer   *http.Server
	logger       *zap.Logger
	mux          *http.ServeMux
	vitalService *service.VitalService
	sessions     *auth.Manager
	db           Pinger
}

func NewServer(d Dependencies) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		logger:       d.Logger,
		mux:          mux,
		vitalService: d.VitalService,
		sessions:     d.Sessions,
		db:           d.DB,
	}

	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("POST /v1/logout", s.handleLogout)
	mux.HandleFunc("GET /v1/patients", s.handlePatients)
	mux.HandleFunc("POST /v1/vitals", s.handleRecordVital)
	mux.HandleFunc("GET /v1/vitals", s.handleFetchVitals)
	mux.HandleFunc("GET /v1/vitals/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/vitals/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, token, err := s.sessions.Login(req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeResponse(w, r, http.StatusOK, types.LoginResponse{
		Token:    token,
		Username: sess.Username,
		Role:     string(sess.Role),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.sessions.Logout(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	patients, err := s.vitalService.Patients(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, map[string]any{"patients": patients})
}

func (s *Server) handleRecordVital(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req types.RecordVitalRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.vitalService.Record(r.Context(), sess, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusCreated, vitalToResponse(rec))
}

func (s *Server) handleFetchVitals(w http.ResponseWriter, r *http.Request) {
	sess, f, ok := s.sessionAndFilter(w, r)
	if !ok {
		return
	}
	recs, err := s.vitalService.Fetch(r.Context(), sess, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, vitalsToResponse(recs))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, f, ok := s.sessionAndFilter(w, r)
	if !ok {
		return
	}
	sum, err := s.vitalService.Summarize(r.Context(), sess, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, f, ok := s.sessionAndFilter(w, r)
	if !ok {
		return
	}
	data, err := s.vitalService.Export(r.Context(), sess, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="vitals.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeError(w, r, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	writeResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the bearer token.  On failure the response has already
// been written.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	token, ok := bearerToken(r)
	if !ok {
		s.fail(w, r, &vitals.AuthError{Reason: "missing bearer token"})
		return auth.Session{}, false
	}
	sess, err := s.sessions.Resolve(token)
	if err != nil {
		s.fail(w, r, err)
		return auth.Session{}, false
	}
	return sess, true
}

func (s *Server) sessionAndFilter(w http.ResponseWriter, r *http.Request) (auth.Session, store.Filter, bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return auth.Session{}, store.Filter{}, false
	}
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return auth.Session{}, store.Filter{}, false
	}
	return sess, f, true
}

// decode reads a JSON or protobuf body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if isProtobuf(r) {
		if err := readProto(r, v); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return false
		}
		return true
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

// fail writes err using the status of its category.  Storage failures are
// logged and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "unexpected server error"
	}
	writeError(w, r, status, code, msg)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// parseFilter reads month, year, patient_id and limit from the query string.
// Absent parameters leave that part of the filter unset.
func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	var f store.Filter
	var err error

	if f.Month, err = optionalInt(q.Get("month"), "month"); err != nil {
		return store.Filter{}, err
	}
	if f.Year, err = optionalInt(q.Get("year"), "year"); err != nil {
		return store.Filter{}, err
	}
	if f.PatientID, err = optionalInt(q.Get("patient_id"), "patient_id"); err != nil {
		return store.Filter{}, err
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		return store.Filter{}, err
	}
	if limit != nil {
		f.Limit = *limit
	}
	return f, nil
}

func optionalInt(raw, field string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, vitals.Invalid(field, "must be an integer, got %q", raw)
	}
	return &n, nil
}


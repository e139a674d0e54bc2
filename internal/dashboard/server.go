package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clima-risk/climadash/internal/export"
	"github.com/clima-risk/climadash/internal/plot"
	"github.com/clima-risk/climadash/internal/recommend"
)

// Server serves the dashboard pages, JSON API, and exports.
type Server struct {
	ctrl *Controller
	addr string
}

func NewServer(ctrl *Controller, addr string) *Server {
	return &Server{ctrl: ctrl, addr: addr}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/location", s.handleLocation)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/select", s.handleSelect)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/api/summary", s.handleAPISummary)
	mux.HandleFunc("/api/series", s.handleAPISeries)
	mux.HandleFunc("/export/json", s.handleExportJSON)
	mux.HandleFunc("/export/pdf", s.handleExportPDF)
	mux.HandleFunc("/export/chart.png", s.handleExportChart)
	mux.HandleFunc("/graph", s.handleGraph)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := renderIndex(w, s.ctrl.Page()); err != nil {
		log.Printf("render index: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	lat, err1 := strconv.ParseFloat(r.FormValue("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.FormValue("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon must be decimal coordinates", http.StatusBadRequest)
		return
	}
	s.ctrl.LoadLocation(r.Context(), lat, lon)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	query := r.FormValue("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	s.ctrl.Search(r.Context(), query)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := r.FormValue("date")
	if raw == "" {
		s.ctrl.ClearDate()
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if err := s.ctrl.SelectDate(date); err != nil && errors.Is(err, ErrNoDataset) {
		http.Error(w, "no dataset loaded", http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.ctrl.StartAnalysis(r.Context()); err != nil && errors.Is(err, ErrNoDataset) {
		http.Error(w, "no dataset loaded", http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	s.ctrl.Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ctrl.Summary())
}

func (s *Server) handleAPISeries(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ctrl.Document(time.Time{})
	if err != nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	var only time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		only = parsed
	}
	doc, err := s.ctrl.Document(only)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, recommend.ErrDateNotFound) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="climate-risk.json"`)
	if err := export.WriteJSON(w, doc); err != nil {
		log.Printf("export json: %v", err)
	}
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ctrl.Document(time.Time{})
	if err != nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="climate-risk.pdf"`)
	if err := export.WritePDF(w, doc); err != nil {
		log.Printf("export pdf: %v", err)
	}
}

func (s *Server) handleExportChart(w http.ResponseWriter, r *http.Request) {
	ds, location, err := s.ctrl.Dataset()
	if err != nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := export.WriteChart(w, location, ds.Series, s.ctrl.Thresholds()); err != nil {
		log.Printf("export chart: %v", err)
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ds, location, err := s.ctrl.Dataset()
	if err != nil {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}
	if err := plot.RenderSeries(w, location, ds); err != nil {
		log.Printf("render graph: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

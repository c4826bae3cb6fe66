package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"springforge/internal/archive"
	"springforge/internal/projectspec"
	"springforge/internal/scaffold"
)

const (
	maxSpecBytes = 1 << 20
	serviceName  = "springboot-generator-api"
	internalMsg  = "Internal server error while generating project"
)

// HTTPHandler serves the JSON API.
type HTTPHandler struct {
	svc *scaffold.Service
}

func NewHTTPHandler(svc *scaffold.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

type generateResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	ProjectName   string   `json:"project_name"`
	ZipFile       string   `json:"zip_file"`
	GenerationID  string   `json:"generation_id"`
	ArchiveURL    string   `json:"archive_url,omitempty"`
	Files         []string `json:"files"`
	Degraded      int      `json:"degraded"`
	DegradedFiles []string `json:"degraded_files,omitempty"`
}

func (h *HTTPHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSpecBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}
	spec, err := projectspec.Parse(raw)
	if err != nil {
		if errors.Is(err, projectspec.ErrEmptySpec) {
			writeError(w, http.StatusBadRequest, "Empty request body")
			return
		}
		writeError(w, http.StatusBadRequest, "Request must be a JSON object")
		return
	}

	res, err := h.svc.Generate(r.Context(), spec)
	if err != nil {
		if scaffold.KindOf(err) == scaffold.KindInputValidation {
			writeError(w, http.StatusBadRequest, errorMessage(err))
			return
		}
		log.Printf("generate failed: %v", err)
		writeError(w, http.StatusInternalServerError, internalMsg)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Status:        "success",
		Message:       "Spring Boot project generated successfully",
		ProjectName:   res.ProjectName,
		ZipFile:       res.Archive,
		GenerationID:  res.GenerationID,
		ArchiveURL:    res.ArchiveURL,
		Files:         res.Files,
		Degraded:      len(res.Degraded),
		DegradedFiles: res.Degraded,
	})
}

func (h *HTTPHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

func (h *HTTPHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/api/info" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Spring Boot Generator API",
		"version": "1.0.0",
		"endpoints": map[string]any{
			"/generate": map[string]string{
				"method":       "POST",
				"description":  "Generate Spring Boot project with specified features",
				"content-type": "application/json",
			},
			"/health": map[string]string{
				"method":      "GET",
				"description": "Health check endpoint",
			},
			"/download/{name}": map[string]string{
				"method":      "GET",
				"description": "Download a generated project archive",
			},
			"/generations": map[string]string{
				"method":      "GET",
				"description": "List past generations of ?project=<name>",
			},
		},
		"features": h.svc.Catalog().FeatureNames(),
		"example_request": map[string]any{
			"projectName": "MyProject",
			"groupId":     "com.example",
			"database":    true,
			"security":    true,
			"messaging":   true,
		},
	})
}

func (h *HTTPHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimSpace(r.PathValue("name")), archive.Ext)
	if err := projectspec.CheckName(name); err != nil {
		writeError(w, http.StatusBadRequest, "invalid project name")
		return
	}
	f, err := os.Open(h.svc.Workspace().ArchivePath(name, archive.Ext))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		log.Printf("download %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "could not open archive")
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not open archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+archive.Ext+`"`)
	http.ServeContent(w, r, name+archive.Ext, st.ModTime(), f)
}

func (h *HTTPHandler) HandleGenerations(w http.ResponseWriter, r *http.Request) {
	project := strings.TrimSpace(r.URL.Query().Get("project"))
	if project == "" {
		writeError(w, http.StatusBadRequest, "project is required")
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.svc.History(r.Context(), project, limit)
	if err != nil {
		log.Printf("list generations of %s: %v", project, err)
		writeError(w, http.StatusInternalServerError, "could not list generations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project, "generations": list})
}

func errorMessage(err error) string {
	var e *scaffold.Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "status": "error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

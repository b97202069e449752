package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"radiocalico/internal/api"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.svc.Health(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, health)
		return
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleDatabaseInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.DatabaseInfo(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterUserRequest
	if err := decodeBody(w, r, &req, func(form url.Values) {
		req.UserID = form.Get("user_id")
	}); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.svc.RegisterUser(r.Context(), req, callerFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RegisterUserResponse{Success: true, User: user})
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRatingRequest
	if err := decodeBody(w, r, &req, func(form url.Values) {
		req.UserID = form.Get("user_id")
		req.Artist = form.Get("artist")
		req.Title = form.Get("title")
		req.Rating = form.Get("rating")
		if form.Has("album") {
			album := form.Get("album")
			req.Album = &album
		}
	}); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.svc.SubmitRating(r.Context(), req, callerFrom(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeData(w, summary)
}

func (s *Server) handleSongRating(w http.ResponseWriter, r *http.Request) {
	artist := pathParam(r, "artist")
	title := pathParam(r, "title")
	rating, err := s.svc.SongRating(r.Context(), artist, title, r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeData(w, rating)
}

func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	limit := api.ParseTopLimit(r.URL.Query().Get("limit"))
	songs, err := s.svc.TopRated(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeData(w, songs)
}

func (s *Server) handleAdminData(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.AdminReport(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeData(w, report)
}

func (s *Server) handleInitDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.InitDatabase(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Database initialized successfully"})
}

// writeServiceError maps validation failures to 400 and everything else to 500.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrValidation) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func callerFrom(r *http.Request) api.Caller {
	return api.Caller{IPAddress: clientIP(r), UserAgent: r.UserAgent()}
}

// pathParam returns a decoded route parameter. chi matches on RawPath when
// the request carried escaped slashes, leaving those parameters encoded.
func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// decodeBody reads a JSON body into dst, or calls fromForm for
// application/x-www-form-urlencoded submissions. An empty body leaves dst
// zeroed so validation reports the missing fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, fromForm func(url.Values)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return errors.New("invalid form body")
		}
		fromForm(r.PostForm)
		return nil
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body: " + strings.TrimSpace(err.Error()))
	}
	return nil
}

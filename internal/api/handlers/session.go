package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dom/group-decide/internal/api/middleware"
	"github.com/dom/group-decide/internal/domain"
	"github.com/dom/group-decide/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Request/Response types
type CreateSessionRequest struct {
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

type AddOptionRequest struct {
	Description string `json:"description"`
}

type TransitionStatusRequest struct {
	Status string `json:"status"`
}

type SwipeRequest struct {
	OptionID string `json:"optionId"`
	Vote     string `json:"vote"`
}

type SessionResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	CreatedBy   string           `json:"createdBy"`
	CreatorName string           `json:"creatorName,omitempty"`
	Status      string           `json:"status"`
	Users       []string         `json:"users"`
	Options     []OptionResponse `json:"options"`
	Swipes      []SwipeResponse  `json:"swipes"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type OptionResponse struct {
	OptionID    string `json:"optionId"`
	Description string `json:"description"`
	YesVotes    int    `json:"yesVotes"`
	NoVotes     int    `json:"noVotes"`
}

type SwipeResponse struct {
	UserID string                 `json:"userId"`
	Votes  map[string]domain.Vote `json:"votes"`
}

type VotesResponse struct {
	Votes map[string]domain.Vote `json:"votes"`
}

type UserSessionsResponse struct {
	Created []SessionResponse `json:"created"`
	Joined  []SessionResponse `json:"joined"`
}

func toSessionResponse(session *domain.Session) SessionResponse {
	users := make([]string, len(session.Users))
	for i, id := range session.Users {
		users[i] = id.String()
	}

	options := make([]OptionResponse, len(session.Options))
	for i, o := range session.Options {
		options[i] = toOptionResponse(o)
	}

	swipes := make([]SwipeResponse, len(session.Swipes))
	for i, s := range session.Swipes {
		swipes[i] = SwipeResponse{UserID: s.UserID.String(), Votes: s.Votes}
	}

	resp := SessionResponse{
		ID:        session.ID.String(),
		Title:     session.Title,
		CreatedBy: session.CreatedBy.String(),
		Status:    string(session.Status),
		Users:     users,
		Options:   options,
		Swipes:    swipes,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	if session.Creator != nil {
		resp.CreatorName = session.Creator.DisplayName
	}
	return resp
}

func toOptionResponse(o domain.Option) OptionResponse {
	return OptionResponse{
		OptionID:    o.OptionID,
		Description: o.Description,
		YesVotes:    o.YesVotes,
		NoVotes:     o.NoVotes,
	}
}

func toSessionResponses(sessions []*domain.Session) []SessionResponse {
	resp := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = toSessionResponse(s)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sessionID parses the {id} path parameter, writing a 400 when it is malformed.
func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.sessionService.CreateSession(r.Context(), service.CreateSessionInput{
		Title:     req.Title,
		CreatorID: userID,
		Options:   req.Options,
	})
	if err != nil {
		writeServiceError(w, "session.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, "session.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.sessionService.JoinSession(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, "session.Join", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req AddOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	option, err := h.sessionService.AddOption(r.Context(), id, userID, req.Description)
	if err != nil {
		writeServiceError(w, "session.AddOption", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOptionResponse(*option))
}

func (h *SessionHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req TransitionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.sessionService.TransitionStatus(r.Context(), id, userID, req.Status)
	if err != nil {
		writeServiceError(w, "session.TransitionStatus", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	votes, err := h.sessionService.RecordSwipe(r.Context(), id, userID, req.OptionID, req.Vote)
	if err != nil {
		writeServiceError(w, "session.Swipe", err)
		return
	}

	writeJSON(w, http.StatusOK, VotesResponse{Votes: votes})
}

func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	result, err := h.sessionService.ComputeResult(r.Context(), id)
	if err != nil {
		writeServiceError(w, "session.Result", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lists, err := h.sessionService.ListUserSessions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "session.ListMine", err)
		return
	}

	writeJSON(w, http.StatusOK, UserSessionsResponse{
		Created: toSessionResponses(lists.Created),
		Joined:  toSessionResponses(lists.Joined),
	})
}

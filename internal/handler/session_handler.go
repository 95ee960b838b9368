package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mhacks/dredd-judging/internal/ingest"
	"github.com/mhacks/dredd-judging/internal/ledger"
	"github.com/mhacks/dredd-judging/internal/model"
	"github.com/mhacks/dredd-judging/internal/session"
)

const maxUploadBytes = 32 << 20

// SessionHandler adapts a *session.Controller to net/http.
type SessionHandler struct {
	ctrl     *session.Controller
	validate *validator.Validate
	logger   zerolog.Logger
}

// New creates a SessionHandler backed by ctrl.
func New(ctrl *session.Controller, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{ctrl: ctrl, validate: validator.New(), logger: logger}
}

func (h *SessionHandler) isStarted() bool {
	return h.ctrl.Status() == session.StatusActive
}

// Start handles POST /start: a multipart upload with a required
// "projects_csv" field, matching the original implementation's route
// signature.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().Msg("Got request to start judging.")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeStatus(w, http.StatusBadRequest, http.StatusBadRequest, "Malformed multipart upload.")
		return
	}
	file, _, err := r.FormFile("projects_csv")
	if err != nil {
		writeStatus(w, http.StatusBadRequest, http.StatusBadRequest, "projects_csv is required.")
		return
	}
	defer closeUpload(file)

	err = h.ctrl.Start(r.Context(), file)
	switch {
	case err == nil:
		writeStatus(w, http.StatusOK, http.StatusOK, "Successfully started!")
	case errors.Is(err, session.ErrAlreadyStarted):
		writeStatus(w, http.StatusOK, http.StatusOK, "Judging has already started!")
	case errors.Is(err, ingest.ErrMalformedCSV):
		writeStatus(w, http.StatusBadRequest, http.StatusBadRequest, "Malformed projects CSV.")
	default:
		h.logger.Error().Err(err).Msg("Unable to start judging")
		writeStatus(w, http.StatusInternalServerError, http.StatusInternalServerError, "Unable to start API. Please check logs.")
	}
}

func closeUpload(f multipart.File) {
	_ = f.Close()
}

// Stop handles POST /stop.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().Msg("Got request to stop judging.")

	switch err := h.ctrl.Stop(); {
	case err == nil:
		writeStatus(w, http.StatusOK, http.StatusOK, "Successfully stopped!")
	case errors.Is(err, session.ErrNotStarted):
		writeStatus(w, http.StatusOK, http.StatusOK, "Judging has not started!")
	default:
		h.logger.Error().Err(err).Msg("Unable to stop judging")
		writeStatus(w, http.StatusInternalServerError, http.StatusInternalServerError, "Unable to stop API. Please check logs.")
	}
}

// Resume handles POST /resume.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().Msg("Got request to resume judging.")

	switch err := h.ctrl.Resume(); {
	case err == nil:
		writeStatus(w, http.StatusOK, http.StatusOK, "Successfully resumed!")
	case errors.Is(err, session.ErrAlreadyStarted):
		writeStatus(w, http.StatusOK, http.StatusOK, "Judging has already started")
	case errors.Is(err, session.ErrNotStarted):
		writeStatus(w, http.StatusOK, http.StatusOK, "Judging has not started!")
	default:
		h.logger.Error().Err(err).Msg("Unable to resume judging")
		writeStatus(w, http.StatusInternalServerError, http.StatusInternalServerError, "Unable to resume API. Please check logs.")
	}
}

// Pair handles GET /pair?uuid=...&force=....
func (h *SessionHandler) Pair(w http.ResponseWriter, r *http.Request) {
	judgeID := r.URL.Query().Get("uuid")
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	h.logger.Info().Str("judge_id", judgeID).Bool("force", force).Msg("Got request for pair.")

	if judgeID == "" {
		writeStatus(w, http.StatusBadRequest, http.StatusBadRequest, "uuid is required.")
		return
	}

	a, b, err := h.ctrl.GetPair(r.Context(), judgeID, force)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, pairResponse{
			StatusCode: http.StatusOK,
			Message:    "Successfully got pair!",
			IsStarted:  true,
			Pair:       [2]model.Entity{a, b},
		})
	case errors.Is(err, session.ErrNotStarted):
		writeJSON(w, http.StatusConflict, pairResponse{
			StatusCode: http.StatusConflict,
			Message:    "Judging has not started!",
			IsStarted:  h.isStarted(),
		})
	default:
		h.logger.Error().Err(err).Msg("Unable to get pair")
		writeStatus(w, http.StatusInternalServerError, http.StatusInternalServerError, "Unable to get pair. Please check logs.")
	}
}

// submitRequest is the JSON body of POST /submit.
type submitRequest struct {
	UUID       string `json:"uuid" validate:"required"`
	ProjectIDs []int  `json:"project_ids" validate:"required,len=2"`
	WinnerID   int    `json:"winner_id"`
}

// Submit handles POST /submit.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeStatus(w, http.StatusBadRequest, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeStatus(w, http.StatusBadRequest, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.ctrl.Submit(r.Context(), req.UUID, req.ProjectIDs[0], req.ProjectIDs[1], req.WinnerID)
	switch {
	case err == nil:
		writeStatus(w, http.StatusOK, http.StatusOK, "Successfully submitted pair!")
	case errors.Is(err, session.ErrNotStarted):
		writeStatus(w, http.StatusConflict, http.StatusConflict, "Judging has not started!")
	case errors.Is(err, session.ErrJudgeDoesNotOwnPair), errors.Is(err, ledger.ErrNoAssignment):
		writeStatus(w, http.StatusConflict, http.StatusConflict, "Judge does not own this pair.")
	case errors.Is(err, session.ErrInvalidPair):
		writeStatus(w, http.StatusConflict, http.StatusConflict, "Invalid pair or winner.")
	default:
		h.logger.Error().Err(err).Msg("Unable to submit comparison")
		writeStatus(w, http.StatusInternalServerError, http.StatusInternalServerError, "Unable to submit comparison. Please check logs.")
	}
}

// Rankings handles GET /rankings.
func (h *SessionHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	entities, err := h.ctrl.Rankings()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rankingsResponse{
			StatusCode: http.StatusOK,
			Message:    "Successfully got rankings!",
			IsStarted:  true,
			Rankings:   entities,
		})
	case errors.Is(err, session.ErrNotStarted):
		writeJSON(w, http.StatusConflict, rankingsResponse{
			StatusCode: http.StatusConflict,
			Message:    "Judging has not started!",
			IsStarted:  h.isStarted(),
		})
	default:
		h.logger.Error().Err(err).Msg("Unable to get rankings")
		writeStatus(w, http.StatusInternalServerError, http.StatusInternalServerError, "Unable to get rankings. Please check logs.")
	}
}

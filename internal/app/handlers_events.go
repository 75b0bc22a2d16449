package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/klabast/wb-services/festival-calendar/internal/events"
)

// maxEventBody caps the size of an event submission.
const maxEventBody = 16 << 10

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list events", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(evs))
}

func (s *Server) addEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in events.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	daysInMonth := func(month int) int {
		return s.lunar.DaysInLunarMonth(ctx, month, 0)
	}
	e, err := events.NewEvent(in, daysInMonth, s.lunar.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EVENT", err.Error())
		return
	}

	if err := s.store.Add(ctx, e); err != nil {
		if errors.Is(err, events.ErrExists) {
			writeError(w, http.StatusConflict, "EXISTS", "event already exists")
			return
		}
		s.logger.ErrorContext(ctx, "add event", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to save event")
		return
	}

	s.logger.InfoContext(ctx, "event added", "id", e.ID, "date", e.Date.String())
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "event not found")
			return
		}
		s.logger.ErrorContext(ctx, "delete event", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete event")
		return
	}

	s.logger.InfoContext(ctx, "event deleted", "id", id)
	writeStatus(w, http.StatusOK, "ok")
}

// changeset returns the staging interface of the store, answering 501 when
// the store writes immediately.
func (s *Server) changeset(w http.ResponseWriter) (events.Changeset, bool) {
	cs, ok := s.store.(events.Changeset)
	if !ok {
		writeError(w, http.StatusNotImplemented, "NOT_SUPPORTED", "the event store commits every change immediately")
	}
	return cs, ok
}

// eventsStatus returns whether there are unsaved changes.
func (s *Server) eventsStatus(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.store.(events.Changeset)
	writeJSON(w, http.StatusOK, map[string]bool{
		"staging":     ok,
		"has_changes": ok && cs.HasChanges(),
	})
}

func (s *Server) commitEvents(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.changeset(w)
	if !ok {
		return
	}
	if err := cs.Commit(); err != nil {
		s.writeChangesetError(w, r, "commit", err)
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

func (s *Server) revertEvents(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.changeset(w)
	if !ok {
		return
	}
	if err := cs.Revert(); err != nil {
		s.writeChangesetError(w, r, "revert", err)
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

func (s *Server) writeChangesetError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, events.ErrNoChanges) {
		writeError(w, http.StatusConflict, "NO_CHANGES", "no pending changes")
		return
	}
	s.logger.ErrorContext(r.Context(), op+" events", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to "+op+" changes")
}

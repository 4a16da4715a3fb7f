package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"reyes/internal/store"
	"reyes/internal/uf"
)

// handleCreateProject handles POST /projects.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !RequirePOST(w, r) {
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	form, err := parseProjectForm(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	price, err := s.resolvePrice(ctx, form.Price)
	if err != nil {
		UnprocessableEntityError("Valor UF no disponible, intenta de nuevo o ingresa el precio en pesos").Write(w)
		return
	}
	form.Project.Price = price

	created, err := s.records.CreateProject(ctx, form.Project)
	if err != nil {
		if storeErr := userFacingError(err); storeErr != "" {
			UnprocessableEntityError(storeErr).Write(w)
			return
		}
		slog.ErrorContext(ctx, "Failed to create project", "error", err)
		InternalServerError("No se pudo guardar el proyecto").Write(w)
		return
	}

	s.invalidateProjects()

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerProjectCreated(created.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Proyecto creado").
		Write(w)
}

// handleUpdateProject handles POST /projects/update.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	if !RequirePOST(w, r) {
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	form, err := parseProjectForm(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if form.ID == 0 {
		BadRequestError("falta el id del proyecto").Write(w)
		return
	}

	price, err := s.resolvePrice(ctx, form.Price)
	if err != nil {
		UnprocessableEntityError("Valor UF no disponible, intenta de nuevo o ingresa el precio en pesos").Write(w)
		return
	}
	form.Project.Price = price

	if err := s.records.UpdateProject(ctx, form.Project); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Proyecto no encontrado").Write(w)
			return
		}
		if storeErr := userFacingError(err); storeErr != "" {
			UnprocessableEntityError(storeErr).Write(w)
			return
		}
		slog.ErrorContext(ctx, "Failed to update project", "project_id", form.ID, "error", err)
		InternalServerError("No se pudo actualizar el proyecto").Write(w)
		return
	}

	s.invalidateProjects()

	NewHTMXResponse().
		TriggerProjectUpdated(form.ID).
		TriggerSuccessNotification("Proyecto actualizado").
		Write(w)
}

// handleDeleteProject handles POST /projects/delete.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if !RequirePOST(w, r) {
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	id, err := parseProjectID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.records.DeleteProject(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Proyecto no encontrado").Write(w)
			return
		}
		slog.ErrorContext(ctx, "Failed to delete project", "project_id", id, "error", err)
		InternalServerError("No se pudo eliminar el proyecto").Write(w)
		return
	}

	s.invalidateProjects()

	NewHTMXResponse().
		TriggerProjectDeleted(id).
		TriggerSuccessNotification("Proyecto eliminado").
		Write(w)
}

// resolvePrice turns a form price entry into stored pesos. A UF entry
// needs today's rate; without it the write is rejected rather than
// stored wrong.
func (s *Server) resolvePrice(ctx context.Context, entry *uf.PriceEntry) (*int64, error) {
	if entry == nil {
		return nil, nil
	}
	if entry.Kind == uf.PriceManual {
		clp := entry.CLP
		return &clp, nil
	}
	if s.rates == nil {
		return nil, uf.ErrRateUnavailable
	}
	rate, err := s.rates.DailyRate(ctx)
	if err != nil {
		return nil, err
	}
	clp := entry.Resolve(rate)
	return &clp, nil
}

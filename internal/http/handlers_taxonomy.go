package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendly/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Taxonomy.ListCategories(r.Context(), userID(r), activeOnly(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Taxonomy.GetCategory(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	c, err := s.svc.Taxonomy.CreateCategory(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch core.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	patch.Name = sanitizePtr(patch.Name)
	c, err := s.svc.Taxonomy.UpdateCategory(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Taxonomy.DeleteCategory(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := s.svc.Taxonomy.ListAccounts(r.Context(), userID(r), activeOnly(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(accts).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Taxonomy.GetAccount(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in core.AccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	a, err := s.svc.Taxonomy.CreateAccount(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(a).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var patch core.AccountPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	patch.Name = sanitizePtr(patch.Name)
	a, err := s.svc.Taxonomy.UpdateAccount(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Taxonomy.DeleteAccount(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := s.svc.Taxonomy.ListOwners(r.Context(), userID(r), activeOnly(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(owners).Write(w)
}

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.Taxonomy.GetOwner(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(o).Write(w)
}

func (s *Server) handleCreateOwner(w http.ResponseWriter, r *http.Request) {
	var in core.OwnerInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	o, err := s.svc.Taxonomy.CreateOwner(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(o).Write(w)
}

func (s *Server) handleUpdateOwner(w http.ResponseWriter, r *http.Request) {
	var patch core.OwnerPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	patch.Name = sanitizePtr(patch.Name)
	o, err := s.svc.Taxonomy.UpdateOwner(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(o).Write(w)
}

func (s *Server) handleDeleteOwner(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Taxonomy.DeleteOwner(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

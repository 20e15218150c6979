package api

import (
	"context"
	"net/http"

	"dealership/internal/models"
	"dealership/internal/service"
)

func (s *Server) adminID(r *http.Request) int64 {
	p, _ := principalFrom(r.Context())
	return p.SubjectID
}

// withBody decodes the JSON body into T and hands it to fn.
func withBody[T any](s *Server, w http.ResponseWriter, r *http.Request, status int, fn func(body T) (any, error)) {
	var body T
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := fn(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, out)
}

// withID parses {id} and hands it to fn.
func (s *Server) withID(w http.ResponseWriter, r *http.Request, fn func(id int64) (any, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := fn(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Cars

func (s *Server) handleAllCars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cars": nonNil(s.deps.Inventory.Cars())})
}

func (s *Server) handleAddCar(w http.ResponseWriter, r *http.Request) {
	withBody(s, w, r, http.StatusCreated, func(in service.CarInput) (any, error) {
		return s.deps.Inventory.AddCar(r.Context(), s.adminID(r), in)
	})
}

func (s *Server) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		var upd service.CarUpdate
		if err := decodeJSON(r, &upd); err != nil {
			return nil, err
		}
		return s.deps.Inventory.UpdateCar(r.Context(), id, upd)
	})
}

func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		return s.deps.Inventory.DeleteCar(r.Context(), s.adminID(r), id)
	})
}

// Customers

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"customers": nonNil(s.deps.Inventory.Customers())})
}

func (s *Server) handleCustomerSummary(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		return s.deps.Reports.CustomerSummary(id)
	})
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		return s.deps.Inventory.DeleteCustomer(r.Context(), s.adminID(r), id)
	})
}

// Showrooms and garages

func (s *Server) handleAddShowroom(w http.ResponseWriter, r *http.Request) {
	withBody(s, w, r, http.StatusCreated, func(in service.LocationInput) (any, error) {
		return s.deps.Inventory.AddShowroom(r.Context(), s.adminID(r), in)
	})
}

func (s *Server) handleUpdateShowroom(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		var upd service.LocationUpdate
		if err := decodeJSON(r, &upd); err != nil {
			return nil, err
		}
		return s.deps.Inventory.UpdateShowroom(r.Context(), id, upd)
	})
}

func (s *Server) handleDeleteShowroom(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		return s.deps.Inventory.DeleteShowroom(r.Context(), s.adminID(r), id)
	})
}

func (s *Server) handleAddGarage(w http.ResponseWriter, r *http.Request) {
	withBody(s, w, r, http.StatusCreated, func(in service.LocationInput) (any, error) {
		return s.deps.Inventory.AddGarage(r.Context(), s.adminID(r), in)
	})
}

func (s *Server) handleUpdateGarage(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		var upd service.LocationUpdate
		if err := decodeJSON(r, &upd); err != nil {
			return nil, err
		}
		return s.deps.Inventory.UpdateGarage(r.Context(), id, upd)
	})
}

func (s *Server) handleDeleteGarage(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		return s.deps.Inventory.DeleteGarage(r.Context(), s.adminID(r), id)
	})
}

func (s *Server) handleAttachService(w http.ResponseWriter, r *http.Request) {
	s.linkService(w, r, s.deps.Inventory.AttachService)
}

func (s *Server) handleDetachService(w http.ResponseWriter, r *http.Request) {
	s.linkService(w, r, s.deps.Inventory.DetachService)
}

func (s *Server) linkService(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, garageID, serviceID int64) (models.Garage, error)) {
	garageID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	garage, err := op(r.Context(), garageID, serviceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, garage)
}

// Services

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	withBody(s, w, r, http.StatusCreated, func(in service.ServiceInput) (any, error) {
		return s.deps.Inventory.AddService(r.Context(), s.adminID(r), in)
	})
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		var upd service.ServiceUpdate
		if err := decodeJSON(r, &upd); err != nil {
			return nil, err
		}
		return s.deps.Inventory.UpdateService(r.Context(), id, upd)
	})
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	s.withID(w, r, func(id int64) (any, error) {
		return s.deps.Inventory.DeleteService(r.Context(), s.adminID(r), id)
	})
}

// Reservations and queue

func (s *Server) handleAllReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reservations": nonNil(s.deps.Transactions.Reservations())})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	expired, err := s.deps.Transactions.SweepExpired(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reclaimed": len(expired), "reservations": nonNil(expired)})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"requests": nonNil(s.deps.Transactions.Queue())})
}

func (s *Server) handleNextRequest(w http.ResponseWriter, r *http.Request) {
	next, ok := s.deps.Transactions.NextServiceRequest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleProcessNext(w http.ResponseWriter, r *http.Request) {
	done, ok, err := s.deps.Transactions.ProcessNextServiceRequest(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

// Action log

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": nonNil(s.deps.Inventory.Actions())})
}

func (s *Server) handleTopAction(w http.ResponseWriter, r *http.Request) {
	action, ok := s.deps.Inventory.LastAction()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (s *Server) handleClearActions(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Inventory.ClearActions(r.Context(), s.adminID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	report, ok, err := s.deps.Inventory.UndoLastAction(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Reports

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Reports.Statistics())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}
	path, err := s.deps.Exporter.Export(s.deps.Reports.Export())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Inventory.Flush(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"net/http"
)

func (s *Server) customerID(r *http.Request) int64 {
	p, _ := principalFrom(r.Context())
	return p.SubjectID
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	carID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	receipt, err := s.deps.Transactions.Buy(r.Context(), s.customerID(r), carID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleRent(w http.ResponseWriter, r *http.Request) {
	carID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	receipt, err := s.deps.Transactions.Rent(r.Context(), s.customerID(r), carID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	carID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body struct {
		Hours int `json:"hours"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	receipt, err := s.deps.Transactions.Reserve(r.Context(), s.customerID(r), carID, body.Hours)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reservations": nonNil(s.deps.Transactions.ReservationsFor(s.customerID(r)))})
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Transactions.CancelReservation(r.Context(), s.customerID(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBookService(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ServiceID int64 `json:"service_id"`
		GarageID  int64 `json:"garage_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Transactions.BookService(r.Context(), s.customerID(r), body.ServiceID, body.GarageID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleMyServiceRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"requests": nonNil(s.deps.Transactions.MyServiceRequests(s.customerID(r)))})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Customers.History(s.customerID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

package store

import (
	"context"

	"dealership/internal/models"
)

// EnqueueServiceRequest appends a pending request and persists the queue.
func (s *Store) EnqueueServiceRequest(ctx context.Context, customerID, serviceID, garageID int64) (int64, error) {
	var req models.ServiceRequest
	err := s.Update(ctx, func(tx *Tx) error {
		req = tx.Enqueue(customerID, serviceID, garageID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return req.RequestID, nil
}

// DequeueServiceRequest removes the queue head. ok is false on an empty queue.
func (s *Store) DequeueServiceRequest(ctx context.Context) (req models.ServiceRequest, ok bool, err error) {
	err = s.Update(ctx, func(tx *Tx) error {
		req, ok = tx.Dequeue()
		return nil
	})
	if err != nil {
		return models.ServiceRequest{}, false, err
	}
	return req, ok, nil
}

func (s *Store) PeekServiceRequest() (req models.ServiceRequest, ok bool) {
	_ = s.View(func(r *Reader) error {
		req, ok = r.PeekRequest()
		return nil
	})
	return req, ok
}

func (s *Store) QueueSize() int {
	var n int
	_ = s.View(func(r *Reader) error {
		n = r.QueueLen()
		return nil
	})
	return n
}

// PushAdminAction records an admin mutation on top of the action log.
func (s *Store) PushAdminAction(ctx context.Context, adminID int64, actionType, entityType string, entityID int64, details string) (int64, error) {
	var action models.AdminAction
	err := s.Update(ctx, func(tx *Tx) error {
		action = tx.PushAction(adminID, actionType, entityType, entityID, details)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return action.ActionID, nil
}

// PopAdminAction removes the most recent action. ok is false on an empty log.
func (s *Store) PopAdminAction(ctx context.Context) (action models.AdminAction, ok bool, err error) {
	err = s.Update(ctx, func(tx *Tx) error {
		action, ok = tx.PopAction()
		return nil
	})
	if err != nil {
		return models.AdminAction{}, false, err
	}
	return action, ok, nil
}

func (s *Store) PeekAdminAction() (action models.AdminAction, ok bool) {
	_ = s.View(func(r *Reader) error {
		action, ok = r.PeekAction()
		return nil
	})
	return action, ok
}

func (s *Store) StackSize() int {
	var n int
	_ = s.View(func(r *Reader) error {
		n = r.ActionsLen()
		return nil
	})
	return n
}

func (s *Store) ClearAdminActions(ctx context.Context) error {
	return s.Update(ctx, func(tx *Tx) error {
		tx.ClearActions()
		return nil
	})
}

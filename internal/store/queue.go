package store

import (
	"container/list"
	"time"

	"dealership/internal/models"
)

// RequestQueue is the FIFO of pending service bookings. It does not validate
// the ids it is given.
type RequestQueue struct {
	items  *list.List
	nextID int64
}

func NewRequestQueue() *RequestQueue {
	return &RequestQueue{items: list.New(), nextID: 1}
}

// newRequestQueueFrom restores a persisted queue. reqs must be head first.
// Ids resume after the highest surviving entry.
func newRequestQueueFrom(reqs []models.ServiceRequest) *RequestQueue {
	q := NewRequestQueue()
	for _, r := range reqs {
		q.items.PushBack(r)
		if r.RequestID >= q.nextID {
			q.nextID = r.RequestID + 1
		}
	}
	return q
}

// Enqueue appends a pending request stamped with at and returns it.
func (q *RequestQueue) Enqueue(customerID, serviceID, garageID int64, at time.Time) models.ServiceRequest {
	req := models.ServiceRequest{
		RequestID:  q.nextID,
		CustomerID: customerID,
		ServiceID:  serviceID,
		GarageID:   garageID,
		Timestamp:  at.Truncate(time.Second),
		Status:     models.RequestPending,
	}
	q.nextID++
	q.items.PushBack(req)
	return req
}

// Dequeue removes the head. ok is false when the queue is empty.
func (q *RequestQueue) Dequeue() (req models.ServiceRequest, ok bool) {
	front := q.items.Front()
	if front == nil {
		return models.ServiceRequest{}, false
	}
	q.items.Remove(front)
	return front.Value.(models.ServiceRequest), true
}

func (q *RequestQueue) Peek() (models.ServiceRequest, bool) {
	front := q.items.Front()
	if front == nil {
		return models.ServiceRequest{}, false
	}
	return front.Value.(models.ServiceRequest), true
}

func (q *RequestQueue) Len() int {
	return q.items.Len()
}

// Items returns the entries head first.
func (q *RequestQueue) Items() []models.ServiceRequest {
	out := make([]models.ServiceRequest, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(models.ServiceRequest))
	}
	return out
}

// ForCustomer returns the customer's entries in queue order.
func (q *RequestQueue) ForCustomer(customerID int64) []models.ServiceRequest {
	var out []models.ServiceRequest
	for e := q.items.Front(); e != nil; e = e.Next() {
		if req := e.Value.(models.ServiceRequest); req.CustomerID == customerID {
			out = append(out, req)
		}
	}
	return out
}

// Position is the 1-based place of the request, 0 if it is not queued.
func (q *RequestQueue) Position(requestID int64) int {
	pos := 1
	for e := q.items.Front(); e != nil; e = e.Next() {
		if e.Value.(models.ServiceRequest).RequestID == requestID {
			return pos
		}
		pos++
	}
	return 0
}

func (q *RequestQueue) clone() *RequestQueue {
	c := &RequestQueue{items: list.New(), nextID: q.nextID}
	for e := q.items.Front(); e != nil; e = e.Next() {
		c.items.PushBack(e.Value)
	}
	return c
}

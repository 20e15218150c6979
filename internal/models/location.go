package models

type Showroom struct {
	ID       int64   `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Location string  `json:"location" yaml:"location"`
	Phone    string  `json:"phone" yaml:"phone"`
	CarIDs   []int64 `json:"car_ids" yaml:"car_ids"`
}

func (s *Showroom) HasCar(carID int64) bool {
	return indexOf(s.CarIDs, carID) >= 0
}

// AddCar appends the id unless it is already listed.
func (s *Showroom) AddCar(carID int64) {
	if !s.HasCar(carID) {
		s.CarIDs = append(s.CarIDs, carID)
	}
}

func (s *Showroom) RemoveCar(carID int64) bool {
	var removed bool
	s.CarIDs, removed = without(s.CarIDs, carID)
	return removed
}

type Garage struct {
	ID         int64   `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Location   string  `json:"location" yaml:"location"`
	Phone      string  `json:"phone" yaml:"phone"`
	ServiceIDs []int64 `json:"service_ids" yaml:"service_ids"`
}

// Offers reports whether the garage lists the service.
func (g *Garage) Offers(serviceID int64) bool {
	return indexOf(g.ServiceIDs, serviceID) >= 0
}

func (g *Garage) AddService(serviceID int64) {
	if !g.Offers(serviceID) {
		g.ServiceIDs = append(g.ServiceIDs, serviceID)
	}
}

func (g *Garage) RemoveService(serviceID int64) bool {
	var removed bool
	g.ServiceIDs, removed = without(g.ServiceIDs, serviceID)
	return removed
}

type Service struct {
	ID    int64   `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

// LocationFilter searches showrooms and garages by name or location substring.
type LocationFilter struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

func (f LocationFilter) Matches(name, location string) bool {
	if f.Name != "" && !containsFold(name, f.Name) {
		return false
	}
	if f.Location != "" && !containsFold(location, f.Location) {
		return false
	}
	return true
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []int64, id int64) ([]int64, bool) {
	i := indexOf(ids, id)
	if i < 0 {
		return ids, false
	}
	out := make([]int64, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...), true
}

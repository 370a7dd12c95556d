package model

import "time"

type ProductStatus int

const (
	NotAssigned ProductStatus = iota
	Assigned
	Delivered
)

func (s ProductStatus) String() string {
	switch s {
	case Assigned:
		return "ASSIGNED"
	case Delivered:
		return "DELIVERED"
	default:
		return "NOT_ASSIGNED"
	}
}

// Order is a customer request to move Products from Origin to Destination
// before Deadline. Units of one order may travel on different routes.
type Order struct {
	ID          int
	Name        string
	Origin      *Airport
	Destination *Airport
	Created     time.Time
	Deadline    time.Time
	Priority    float64
	CustomerID  string
	Products    []*Product
}

func (o *Order) Quantity() int { return len(o.Products) }

// Product is one indivisible unit of an order.
type Product struct {
	ID      int
	OrderID int
	Status  ProductStatus
	Route   Route
}

// NewOrder builds an order with qty freshly numbered product units starting
// at firstProductID.
func NewOrder(id int, origin, dest *Airport, created, deadline time.Time, qty, firstProductID int) *Order {
	o := &Order{
		ID:          id,
		Origin:      origin,
		Destination: dest,
		Created:     created,
		Deadline:    deadline,
		Priority:    1,
	}
	o.Products = make([]*Product, qty)
	for i := range o.Products {
		o.Products[i] = &Product{ID: firstProductID + i, OrderID: id}
	}
	return o
}

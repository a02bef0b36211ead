package analytics

import (
	"time"

	"github.com/edvin/saaslens/internal/model"
)

var (
	free = &model.Product{ID: "p-free", Name: "Free", Price: 0}
	plus = &model.Product{ID: "p-plus", Name: "Plus", Price: 20}
	pro  = &model.Product{ID: "p-pro", Name: "Pro", Price: 200}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func newSub(customerID string, product *model.Product, status string, start time.Time) model.Subscription {
	return model.Subscription{
		ID:         customerID + "-" + product.Name + "-" + start.Format("20060102"),
		CustomerID: customerID,
		ProductID:  product.ID,
		Product:    product,
		Status:     status,
		Amount:     product.Price,
		StartDate:  start,
	}
}

func canceledSub(customerID string, product *model.Product, start, canceled, ended time.Time) model.Subscription {
	s := newSub(customerID, product, model.StatusCanceled, start)
	s.CanceledAt = timePtr(canceled)
	s.EndDate = timePtr(ended)
	return s
}

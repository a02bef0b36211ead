package core

import "time"

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testNowFunc() time.Time { return testNow }

// subscriptionRow returns a scan function matching subscriptionSelect.
func subscriptionRow(id, customerID, product, status string, amount float64, start time.Time, end *time.Time) func(dest ...any) error {
	var canceled *time.Time
	if end != nil {
		canceled = end
	}
	return values(
		id, "sub_"+id, customerID, "prod-"+product, status, amount,
		start, end, canceled, testNow, testNow,
		"prod-"+product, (*string)(nil), product, amount, testNow, testNow, customerID+"@example.com",
	)
}

func customerRow(id, email string) func(dest ...any) error {
	return values(id, "cus_"+id, email, (*string)(nil), testNow, testNow)
}

func timePtr(t time.Time) *time.Time { return &t }

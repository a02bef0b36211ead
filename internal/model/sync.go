package model

const (
	SyncScopeAll           = "all"
	SyncScopeCustomers     = "customers"
	SyncScopeSubscriptions = "subscriptions"
)

// SyncRequest is the argument of the billing sync workflow.
type SyncRequest struct {
	AccountID string `json:"account_id"`
	Scope     string `json:"scope"`
}

// SyncResult counts the records written by one sync run.
type SyncResult struct {
	Customers     int `json:"customers"`
	Products      int `json:"products"`
	Subscriptions int `json:"subscriptions"`
}

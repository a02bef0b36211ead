// Package api serves the analytics REST API: the assistant chat endpoints,
// dashboard views, record listings, metric snapshots, demo data generation
// and the Stripe Connect and webhook endpoints.
package api

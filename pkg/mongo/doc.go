// Package mongo opens MongoDB clients with go.mongodb.org/mongo-driver/v2,
// retrying until the deployment answers a ping, and exposes a readiness check.
package mongo

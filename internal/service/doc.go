// Package service provides the application-level operations of the task
// tracker: task creation, querying, mutation, and user registration and
// authentication. Services orchestrate the stores, enforce authorization,
// and run every multi-step mutation inside a single transaction.
package service

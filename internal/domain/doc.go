// Package domain defines the core business entities of the task tracker:
// users, tasks, comments, and the status transition rules that derive
// task timestamps. It has no persistence or transport dependencies.
package domain

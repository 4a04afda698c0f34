package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrDrawNotFound  = errors.New("draw not found or already resolved")
	ErrInvalidWinner = errors.New("winner must be team1 or team2")
	ErrBackpressure  = errors.New("result queue is full")
	ErrStopped       = errors.New("service stopped")
)

package domain

import "time"

// Области rate limit: счетчики разных областей не пересекаются
const (
	RateLimitScopeCreateRoom = "create-room"
	RateLimitScopeUpload     = "upload"
)

// RateLimitWindow - окно фиксированной длины для лимитов "в минуту"
const RateLimitWindow = time.Minute

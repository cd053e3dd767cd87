package utils

import "time"

const (
	Version = "v0.3.1"
	CliName = "BeaconEvents"

	// epochs kept between the head and the latest processable epoch
	HeadEpochMargin = 2

	DefaultRequestTimeout = 30 * time.Second
)

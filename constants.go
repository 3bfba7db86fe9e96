package server

import "time"

const (
	ProtocolVersion       = 1
	writeWait             = 10 * time.Second
	tickRate              = 15 // ticks per second (10–20 Hz)
	heartbeatInterval     = 2 * time.Second
	disconnectAfter       = 3 * heartbeatInterval
	countdownSeconds      = 3.0
	decisionIntervalTicks = 8 // scripted drivers re-decide roughly twice a second
	fuelBurnPerSecond     = 0.15
	tireWearPerSecond     = 0.08
	lowFuelLevel          = 5.0
	lowFuelSpeedCap       = 150.0 // km/h
	emptyTankSpeedCap     = 60.0  // km/h limp once the tank is dry
	pickupCount           = 8
	pickupRadius          = 0.002 // progress units
	pickupRespawnSeconds  = 5.0
	magazineSize          = 50
	fireCooldownSeconds   = 0.2
	weaponRangeMeters     = 150.0
	projectileSpeedMps    = 250.0
	projectileHitRadius   = 4.0 // meters
	hitSlowFactor         = 0.85
	hitSlowSeconds        = 1.5
	minSpeedAfterHit      = 10.0 // km/h
	contactThreshold      = 0.002
	contactCooldownTicks  = 8
	laneSpacing           = 6.0 // meters between lane centers
	laneShiftPerSecond    = 2.5 // lanes per second
	laneSnapEpsilon       = 0.02
	minRaceLaps           = 1
	maxRaceLaps           = 100
	minRaceDrivers        = 2
	maxRaceDrivers        = 5
)

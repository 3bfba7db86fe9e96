package server

import "drift-and-draft/server/logging"

func carRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindCar}
}

func pickupRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPickup}
}

func projectileRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindProjectile}
}

func spectatorRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindSpectator}
}

func worldRef() logging.EntityRef {
	return logging.EntityRef{ID: "world", Kind: logging.EntityKindWorld}
}

package hub

import "strconv"

// registryFullError signals that every subscriber slot is taken.
type registryFullError struct{ slots int }

func (e registryFullError) Error() string {
	return "subscriber slots exhausted (" + strconv.Itoa(e.slots) + " in use)"
}

// IsRegistryFull reports whether err indicates the slot table is at capacity.
func IsRegistryFull(err error) bool {
	_, ok := err.(registryFullError)
	return ok
}

package booking

// CanModify reports whether the actor may reschedule or delete b.
func (a Actor) CanModify(b *Booking) bool {
	return a.Privileged || (a.ID != "" && a.ID == b.OwnerID)
}

// CanAssign reports whether the actor may create a booking owned by ownerID.
func (a Actor) CanAssign(ownerID string) bool {
	return a.Privileged || (a.ID != "" && a.ID == ownerID)
}

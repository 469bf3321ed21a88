package model

// Requester is the authenticated caller of the booking API.
type Requester struct {
	ID    string
	Admin bool
}

// CanAccess reports whether r may read or cancel b.
func (r Requester) CanAccess(b *Booking) bool {
	return r.Admin || (r.ID != "" && r.ID == b.RequesterID)
}

package model

// Room is a catalog entry. Only TimesBooked is mutated by the reservation flow.
type Room struct {
	ID          int64  `json:"id" bson:"_id"`
	HotelID     int64  `json:"hotel_id" bson:"hotel_id"`
	Number      string `json:"number" bson:"number"`
	Capacity    int    `json:"capacity" bson:"capacity"`
	Available   bool   `json:"available" bson:"available"`
	TimesBooked int64  `json:"times_booked" bson:"times_booked"`
}

// RoomView is the candidate-room contract exchanged between the services.
type RoomView struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Number      string `json:"number"`
	TimesBooked int64  `json:"times_booked" validate:"gte=0"`
}

func (r *Room) View() RoomView {
	return RoomView{
		ID:          r.ID,
		Number:      r.Number,
		TimesBooked: r.TimesBooked,
	}
}

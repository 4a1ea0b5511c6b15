package topics

const (
	// Rooms
	StakePlaced = "stake_placed"
	RoomClosed  = "room_closed"
	RoomSettled = "room_settled"

	// DLQs
	RoomClosedDLQ  = "room_closed_dlq"
	RoomSettledDLQ = "room_settled_dlq"
)

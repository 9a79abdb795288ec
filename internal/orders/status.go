package orders

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true},
	StatusConfirmed: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

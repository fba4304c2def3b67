package pos

type Status string

const (
	StatusPending Status = "pending"
	StatusConfirm Status = "confirm"
	StatusVoid    Status = "void"
)

var validNext = map[Status]map[Status]bool{
	StatusPending: {StatusConfirm: true, StatusVoid: true},
	StatusConfirm: {StatusVoid: true},
	StatusVoid:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

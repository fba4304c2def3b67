package pos

const (
	TopicOrderConfirmed = "pos.order.confirmed"
)

// Partition key = order uuid, so every event of one order keeps its order.
func PartitionKey(orderUUID string) []byte { return []byte(orderUUID) }

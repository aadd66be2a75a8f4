package model

import (
	"encoding/json"
	"strconv"

	"github.com/catalogue-registry/registry/src/catalogue"
)

// Notification tells downstream consumers that a public mirror changed
type Notification struct {
	MessageId   string               `json:"message_id"`
	EntityType  catalogue.EntityType `json:"entity_type"`
	Operation   catalogue.Operation  `json:"operation"`
	EntityId    string               `json:"entity_id"`
	CatalogueId string               `json:"catalogue_id"`
	OriginalId  string               `json:"original_id,omitempty"`

	// Unix milliseconds of the draft modification the mirror reflects
	Timestamp int64 `json:"timestamp"`
}

func (self *Notification) Topic() string {
	return catalogue.Topic(self.EntityType, self.Operation)
}

// Deduplication key, equal for redeliveries of the same change
func (self *Notification) DeduplicationKey() string {
	return self.Topic() + "/" + self.CatalogueId + "/" + self.EntityId + "/" + strconv.FormatInt(self.Timestamp, 10)
}

func (self *Notification) MarshalBinary() (data []byte, err error) {
	return json.Marshal(self)
}

func (self *Notification) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, self)
}

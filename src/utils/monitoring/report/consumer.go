package report

import (
	"go.uber.org/atomic"
)

type ConsumerErrors struct {
	Read   atomic.Uint64 `json:"read"`
	Decode atomic.Uint64 `json:"decode"`
	Ack    atomic.Uint64 `json:"ack"`
}

type ConsumerState struct {
	MessagesReceived  atomic.Uint64 `json:"messages_received"`
	MessagesHandled   atomic.Uint64 `json:"messages_handled"`
	DuplicatesDropped atomic.Uint64 `json:"duplicates_dropped"`
}

type ConsumerReport struct {
	State  ConsumerState  `json:"state"`
	Errors ConsumerErrors `json:"errors"`
}

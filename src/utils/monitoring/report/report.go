package report

// Report groups the counters of every component. It's served as JSON on /v1/state.
type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Lifecycle      *LifecycleReport      `json:"lifecycle,omitempty"`
	Dispatcher     *DispatcherReport     `json:"dispatcher,omitempty"`
	Synchronizer   *SynchronizerReport   `json:"synchronizer,omitempty"`
	Sweeper        *SweeperReport        `json:"sweeper,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
	Consumer       *ConsumerReport       `json:"consumer,omitempty"`
	Search         *SearchReport         `json:"search,omitempty"`
}

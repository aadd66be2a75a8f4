package task

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/catalogue-registry/registry/src/utils/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestTaskTestSuite(t *testing.T) {
	suite.Run(t, new(TaskTestSuite))
}

type TaskTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *TaskTestSuite) SetupSuite() {
	s.config = config.Default()
}

func (s *TaskTestSuite) TestLifecycle() {
	var stopped, afterStop atomic.Bool

	parent := NewTask(s.config, "parent")
	child := NewTask(s.config, "child").
		WithOnStop(func() { stopped.Store(true) }).
		WithOnAfterStop(func() { afterStop.Store(true) })
	child.WithSubtaskFunc(func() error {
		<-child.StopChannel
		return nil
	})
	parent.WithSubtask(child)

	require.Nil(s.T(), parent.Start())
	parent.StopWait()

	require.True(s.T(), stopped.Load())
	require.True(s.T(), child.IsStopping.Load())
	require.Eventually(s.T(), afterStop.Load, time.Second, 10*time.Millisecond)
	<-parent.CtxRunning.Done()
}

func (s *TaskTestSuite) TestPeriodicSubtask() {
	var runs atomic.Int32
	task := NewTask(s.config, "periodic")
	task.WithPeriodicSubtaskFunc(10*time.Millisecond, func() error {
		runs.Inc()
		return nil
	})

	require.Nil(s.T(), task.Start())
	require.Eventually(s.T(), func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	task.StopWait()
}

func (s *TaskTestSuite) TestOrderedPoolKeepsOrderPerKey() {
	pool := NewOrderedPool(4)

	var mtx sync.Mutex
	got := make(map[string][]int)
	for i := 0; i < 100; i++ {
		for _, key := range []string{"a", "b", "c"} {
			key, i := key, i
			pool.Submit(key, func() {
				mtx.Lock()
				defer mtx.Unlock()
				got[key] = append(got[key], i)
			})
		}
	}
	pool.StopWait()

	for _, key := range []string{"a", "b", "c"} {
		require.Len(s.T(), got[key], 100, fmt.Sprintf("key %s", key))
		for i, v := range got[key] {
			require.Equal(s.T(), i, v)
		}
	}
}

func (s *TaskTestSuite) TestRetry() {
	var attempts int
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithMaxInterval(time.Millisecond).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return err
		}).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
	require.Nil(s.T(), err)
	require.Equal(s.T(), 3, attempts)
}

func (s *TaskTestSuite) TestRetryPermanent() {
	var attempts int
	permanent := errors.New("permanent")
	err := NewRetry().
		WithMaxElapsedTime(time.Second).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return permanent
		})
	require.ErrorIs(s.T(), err, permanent)
	require.Equal(s.T(), 1, attempts)
}

package worker

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// IJob job的接口
type IJob interface {
	Start() error
	Run()
	Stop() error
}

// OnWork one round of a job
type OnWork func() error

// BaseJob cron driven job, a round is skipped while the previous one is still running
type BaseJob struct {
	Cron      *cron.Cron
	isRunning int32
	OnWork    OnWork
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

// Stop stops the cron and waits for the running round
func (job *BaseJob) Stop() error {
	<-job.Cron.Stop().Done()
	return nil
}

func (job *BaseJob) Run() {
	if !atomic.CompareAndSwapInt32(&job.isRunning, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&job.isRunning, 0)

	_ = job.OnWork()
}

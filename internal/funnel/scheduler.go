package funnel

import "time"

// Scheduler 延迟任务，返回的 cancel 可以重复调用
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Observer 问卷埋点，实现必须是非阻塞的
type Observer interface {
	StepReached(index int, field string)
	Disqualified(choice string)
	SubmissionFinished(err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StepReached(int, string)                 {}
func (nopObserver) Disqualified(string)                     {}
func (nopObserver) SubmissionFinished(error, time.Duration) {}

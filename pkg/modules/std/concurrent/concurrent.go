// Package concurrent provides the std.concurrent module: Mutex and Channel
// objects for explicit coordination between threads, and sleep.
package concurrent

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/value"
)

const Name = "std.concurrent"

var (
	ErrNotLocked = errors.New("unlock of unlocked Mutex")
	ErrClosed    = errors.New("send on closed Channel")
)

var (
	MutexType   = value.NewNativeType("Mutex")
	ChannelType = value.NewNativeType("Channel")
)

func init() {
	MutexType.SetConstructor(func(result *value.Value, args []*value.Value) error {
		if err := value.CheckArgs(args, ""); err != nil {
			return err
		}
		result.SetObject(MutexType, &Mutex{ch: make(chan struct{}, 1)})
		return nil
	})
	MutexType.
		AddMethod("lock", mutexLock).
		AddMethod("unlock", mutexUnlock).
		AddMethod("tryLock", mutexTryLock)

	ChannelType.SetConstructor(func(result *value.Value, args []*value.Value) error {
		if err := value.CheckArgs(args, "|i"); err != nil {
			return err
		}

		capacity := 0
		if len(args) == 1 {
			if args[0].Int() < 0 {
				return fmt.Errorf("%w: negative Channel capacity %d", value.ErrOutOfRange, args[0].Int())
			}
			capacity = int(args[0].Int())
		}

		result.SetObject(ChannelType, &Channel{
			ch:   make(chan *value.Value, capacity),
			done: make(chan struct{}),
		})
		return nil
	})
	ChannelType.
		AddMethod("send", channelSend).
		AddMethod("recv", channelRecv).
		AddMethod("close", channelClose)
}

func Module() *modules.Module {
	return modules.New(Name).
		AddType(MutexType).
		AddType(ChannelType).
		AddFunction("sleep", sleep)
}

// Mutex is a lock whose misuse is reported instead of crashing the process.
type Mutex struct {
	ch chan struct{}
}

func mutex(this *value.Value) (*Mutex, error) {
	return value.ObjectOf[*Mutex](this, MutexType)
}

func mutexLock(result, this *value.Value, args []*value.Value) error {
	m, err := mutex(this)
	if err != nil {
		return err
	}

	m.ch <- struct{}{}
	result.SetBool(true)
	return nil
}

func mutexTryLock(result, this *value.Value, args []*value.Value) error {
	m, err := mutex(this)
	if err != nil {
		return err
	}

	select {
	case m.ch <- struct{}{}:
		result.SetBool(true)
	default:
		result.SetBool(false)
	}

	return nil
}

func mutexUnlock(result, this *value.Value, args []*value.Value) error {
	m, err := mutex(this)
	if err != nil {
		return err
	}

	select {
	case <-m.ch:
		result.SetBool(true)
		return nil
	default:
		return ErrNotLocked
	}
}

// Channel hands values from one thread to another. Values already buffered
// when it is closed can still be received.
type Channel struct {
	ch   chan *value.Value
	done chan struct{}
	once sync.Once
}

func channel(this *value.Value) (*Channel, error) {
	return value.ObjectOf[*Channel](this, ChannelType)
}

func channelSend(result, this *value.Value, args []*value.Value) error {
	c, err := channel(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "*"); err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.ch <- args[0].Clone():
		result.SetBool(true)
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// recv yields null once the channel is closed and drained.
func channelRecv(result, this *value.Value, args []*value.Value) error {
	c, err := channel(this)
	if err != nil {
		return err
	}

	select {
	case v := <-c.ch:
		result.Assign(v)
		return nil
	case <-c.done:
	}

	select {
	case v := <-c.ch:
		result.Assign(v)
	default:
		result.SetNone()
	}

	return nil
}

func channelClose(result, this *value.Value, args []*value.Value) error {
	c, err := channel(this)
	if err != nil {
		return err
	}

	c.once.Do(func() { close(c.done) })
	result.SetNone()
	return nil
}

func sleep(result *value.Value, args []*value.Value) error {
	if err := value.CheckArgs(args, "n"); err != nil {
		return err
	}

	ms, _ := args[0].Number()
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
	result.SetNone()

	return nil
}

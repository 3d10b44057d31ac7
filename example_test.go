package workerthread_test

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joeycumines/go-workerthread"
	"github.com/joeycumines/stumpy"
)

func Example() {
	thread, err := workerthread.New()
	if err != nil {
		panic(err)
	}
	defer thread.Stop()

	answer, err := workerthread.SubmitFunc(thread, context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		panic(err)
	}

	tag := errors.New("tag")
	failed, err := thread.Submit(context.Background(), func(ctx context.Context) error {
		return tag
	})
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran bool
	cancelled, err := thread.Submit(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		panic(err)
	}

	v, err := answer.Wait(context.Background())
	fmt.Println(answer.State(), v, err)

	_, err = failed.Wait(context.Background())
	fmt.Println(failed.State(), errors.Is(err, tag))

	_, err = cancelled.Wait(context.Background())
	fmt.Println(cancelled.State(), errors.Is(err, workerthread.ErrCancelled), ran)

	//output:
	//Completed 42 <nil>
	//Failed true
	//Cancelled true false
}

func ExampleThread_Stop() {
	thread, err := workerthread.New()
	if err != nil {
		panic(err)
	}

	thread.Stop()
	<-thread.Done()

	fmt.Println(thread.State())
	fmt.Println(thread.Post(context.Background(), func(ctx context.Context) {}))

	//output:
	//Stopped
	//workerthread: thread stopped
}

func ExampleFromContext() {
	thread, err := workerthread.New()
	if err != nil {
		panic(err)
	}
	defer thread.Stop()

	done := make(chan struct{})
	err = thread.Send(context.Background(), func(ctx context.Context) error {
		fmt.Println("first")
		return workerthread.FromContext(ctx).Post(func() {
			fmt.Println("continuation")
			close(done)
		})
	})
	if err != nil {
		panic(err)
	}
	<-done

	//output:
	//first
	//continuation
}

func ExampleWithLogger() {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(os.Stdout),
			stumpy.WithTimeField(``),
		),
	)

	thread, err := workerthread.New(
		workerthread.WithName(`example`),
		workerthread.WithLogger(logger.Logger()),
	)
	if err != nil {
		panic(err)
	}

	if err := thread.Post(nil, func(ctx context.Context) { panic(`oops`) }); err != nil {
		panic(err)
	}

	// items run in order, so once this returns the panic has been logged
	if err := thread.Send(nil, func(context.Context) error { return nil }); err != nil {
		panic(err)
	}

	if err := thread.Shutdown(context.Background()); err != nil {
		panic(err)
	}

	//output:
	//{"lvl":"err","thread":"example","err":"workerthread: callback panicked: oops","msg":"posted callback failed"}
}

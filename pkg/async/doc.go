// Package async provides a minimal generic Future used for non-blocking
// handshakes: the caller starts work with Run and later awaits or observes
// Done instead of blocking a goroutine on the call itself.
//
//	f := async.Run(ctx, func(ctx context.Context) (State, error) {
//		return connect(ctx)
//	})
//	state, err := f.AwaitContext(ctx)
package async
